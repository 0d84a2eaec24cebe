// Package format turns numbers and dates into pt-BR display strings.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"paymordomo/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	locale  = language.BrazilianPortuguese
	printer = message.NewPrinter(locale)

	nonDigits = regexp.MustCompile(`\D`)
)

const (
	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006, 15:04:05"
	timeLayout     = "15:04:05"
)

// Number formats v with pt-BR grouping and exactly decimals fraction digits.
func Number(v float64, decimals int) string {
	return printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals),
	))
}

// Currency formats v as BRL, e.g. "R$ 1.234,50" or "-R$ 50,00".
func Currency(v float64) string {
	body := CurrencyNoSymbol(math.Abs(v))
	if v < 0 {
		return "-R$ " + body
	}
	return "R$ " + body
}

// CurrencyNoSymbol formats v like Currency without the "R$" prefix.
func CurrencyNoSymbol(v float64) string {
	return Number(v, 2)
}

func Percentage(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64) + "%"
}

func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeLayout)
}

func Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func Digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// Phone formats an 11 digit mobile as "(DD) NNNNN-NNNN" and a 10 digit
// landline as "(DD) NNNN-NNNN". Anything else is returned as given.
func Phone(phone string) string {
	d := Digits(phone)
	switch len(d) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:7], d[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", d[:2], d[2:6], d[6:])
	}
	return phone
}

func CPF(cpf string) string {
	d := Digits(cpf)
	if len(d) != 11 {
		return cpf
	}
	return fmt.Sprintf("%s.%s.%s-%s", d[:3], d[3:6], d[6:9], d[9:])
}

func CNPJ(cnpj string) string {
	d := Digits(cnpj)
	if len(d) != 14 {
		return cnpj
	}
	return fmt.Sprintf("%s.%s.%s/%s-%s", d[:2], d[2:5], d[5:8], d[8:12], d[12:])
}

func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return cases.Upper(locale).String(string(r)) + cases.Lower(locale).String(s[size:])
}

func TitleCase(s string) string {
	return cases.Title(locale).String(strings.ToLower(s))
}

// Truncate cuts text to length runes and appends suffix when it was longer.
func Truncate(text string, length int, suffix string) string {
	if utf8.RuneCountInString(text) <= length {
		return text
	}
	return string([]rune(text)[:length]) + suffix
}

// Initials returns up to two uppercase initials of name.
func Initials(name string) string {
	var b strings.Builder
	for _, w := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(r)
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return cases.Upper(locale).String(b.String())
}

// DaysRemaining describes how far target is from now, counting whole days.
func DaysRemaining(target, now time.Time) string {
	t := truncateDay(target)
	today := truncateDay(now)
	days := int(math.Ceil(t.Sub(today).Hours() / 24))
	switch {
	case days < 0:
		return "Vencido"
	case days == 0:
		return "Hoje"
	case days == 1:
		return "Amanhã"
	}
	return fmt.Sprintf("%d dias", days)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TimeAgo renders the elapsed time since t in the largest whole unit.
func TimeAgo(t, now time.Time) string {
	seconds := now.Sub(t).Seconds()
	units := []struct {
		size float64
		name string
	}{
		{31536000, "anos"},
		{2592000, "meses"},
		{86400, "dias"},
		{3600, "horas"},
		{60, "minutos"},
	}
	for _, u := range units {
		if interval := seconds / u.size; interval > 1 {
			return fmt.Sprintf("%d %s atrás", int(math.Floor(interval)), u.name)
		}
	}
	return fmt.Sprintf("%d segundos atrás", int(math.Floor(seconds)))
}

func FileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizes[i]
}

// Duration renders minutes as "HH:MM".
func Duration(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type GoalProgress struct {
	Percentage float64 `json:"percentage"`
	Text       string  `json:"text"`
}

func Progress(current, target float64) GoalProgress {
	var pct float64
	if target > 0 {
		pct = math.Min(current/target*100, 100)
	}
	return GoalProgress{
		Percentage: pct,
		Text:       Currency(current) + " de " + Currency(target),
	}
}

func TransactionType(t models.TransactionType) string {
	switch t {
	case models.TransactionIncome:
		return "➕ Entrada"
	case models.TransactionExpense:
		return "➖ Saída"
	}
	return string(t)
}

func ContributionType(t models.ContributionType) string {
	switch t {
	case models.ContributionTithe:
		return "Dízimo"
	case models.ContributionOffering:
		return "Oferta"
	}
	return string(t)
}

func ContributionStatus(s models.ContributionStatus) string {
	switch s {
	case models.ContributionPaid:
		return "✅ Pago"
	case models.ContributionPartial:
		return "🟡 Parcial"
	case models.ContributionPending:
		return "⏳ Pendente"
	}
	return string(s)
}

func Priority(p models.GoalPriority) string {
	switch p {
	case models.PriorityHigh:
		return "Alta"
	case models.PriorityMedium:
		return "Média"
	case models.PriorityLow:
		return "Baixa"
	}
	return string(p)
}
