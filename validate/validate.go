// Package validate holds the form predicates used by every write path.
package validate

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"paymordomo/models"
)

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits = regexp.MustCompile(`\D`)
)

const DateLayout = "2006-01-02"

func Email(email string) bool {
	return emailRe.MatchString(email)
}

// Phone accepts a Brazilian number with area code: 10 digits (landline) or
// 11 digits (mobile), area code not starting with 0. Punctuation is ignored.
func Phone(phone string) bool {
	d := nonDigits.ReplaceAllString(phone, "")
	return (len(d) == 10 || len(d) == 11) && d[0] != '0'
}

func allSame(d string) bool {
	return strings.Count(d, d[:1]) == len(d)
}

func digitsOf(s string) []int {
	d := nonDigits.ReplaceAllString(s, "")
	out := make([]int, len(d))
	for i, r := range d {
		out[i] = int(r - '0')
	}
	return out
}

// CPF checks the two mod-11 verification digits.
func CPF(cpf string) bool {
	d := digitsOf(cpf)
	if len(d) != 11 || allSame(nonDigits.ReplaceAllString(cpf, "")) {
		return false
	}
	check := func(n int) int {
		sum := 0
		for i := 0; i < n; i++ {
			sum += d[i] * (n + 1 - i)
		}
		r := (sum * 10) % 11
		if r == 10 {
			r = 0
		}
		return r
	}
	return check(9) == d[9] && check(10) == d[10]
}

// CNPJ checks the two weighted mod-11 verification digits.
func CNPJ(cnpj string) bool {
	d := digitsOf(cnpj)
	if len(d) != 14 || allSame(nonDigits.ReplaceAllString(cnpj, "")) {
		return false
	}
	check := func(size int) int {
		sum, pos := 0, size-7
		for i := 0; i < size; i++ {
			sum += d[i] * pos
			pos--
			if pos < 2 {
				pos = 9
			}
		}
		if sum%11 < 2 {
			return 0
		}
		return 11 - sum%11
	}
	return check(12) == d[12] && check(13) == d[13]
}

// Password requires at least 8 characters with one lowercase letter, one
// uppercase letter and one digit.
func Password(password string) bool {
	if utf8.RuneCountInString(password) < 8 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

func URL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func Date(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func FutureDate(t, now time.Time) bool {
	y, m, d := now.Date()
	return t.After(time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}

func Number(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func PositiveNumber(v float64) bool { return v > 0 }

func Integer(v float64) bool { return v == float64(int64(v)) }

func NotEmpty(s string) bool { return strings.TrimSpace(s) != "" }

func MinLength(s string, n int) bool { return utf8.RuneCountInString(s) >= n }

func MaxLength(s string, n int) bool { return utf8.RuneCountInString(s) <= n }

func ExactLength(s string, n int) bool { return utf8.RuneCountInString(s) == n }

func Between(v, min, max float64) bool { return v >= min && v <= max }

func InList[T comparable](v T, list []T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func TransactionCategory(c string) bool {
	return InList(c, models.TransactionCategories)
}

func TransactionType(t string) bool {
	return InList(models.TransactionType(t), []models.TransactionType{
		models.TransactionIncome, models.TransactionExpense,
	})
}

func ContributionType(t string) bool {
	return InList(models.ContributionType(t), []models.ContributionType{
		models.ContributionTithe, models.ContributionOffering,
	})
}

func ContributionStatus(s string) bool {
	return InList(models.ContributionStatus(s), []models.ContributionStatus{
		models.ContributionPaid, models.ContributionPartial, models.ContributionPending,
	})
}

func GoalPriority(p string) bool {
	return InList(models.GoalPriority(p), []models.GoalPriority{
		models.PriorityHigh, models.PriorityMedium, models.PriorityLow,
	})
}
