package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var messages = map[string]string{
	"email":        "Email inválido",
	"phone_br":     "Telefone deve ter DDD e 10 ou 11 dígitos",
	"cpf":          "CPF inválido",
	"cnpj":         "CNPJ inválido",
	"password":     "Senha deve ter mínimo 8 caracteres, 1 maiúscula, 1 minúscula e 1 número",
	"url":          "URL inválida",
	"datestr":      "Data inválida",
	"gt":           "Deve ser um número positivo",
	"gte":          "Valor abaixo do mínimo",
	"required":     "Campo obrigatório",
	"notblank":     "Campo obrigatório",
	"min":          "Campo muito curto",
	"max":          "Campo muito longo",
	"tx_type":      "Tipo de transação inválido",
	"tx_category":  "Categoria inválida",
	"contrib_type": "Tipo de contribuição inválido",
	"contrib_stat": "Situação inválida",
	"priority":     "Prioridade inválida",
}

// New returns a validator with the PayMordomo tags registered. Field names in
// errors come from the json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	str := func(fn func(string) bool) validator.Func {
		return func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}
	}
	_ = v.RegisterValidation("phone_br", str(Phone))
	_ = v.RegisterValidation("cpf", str(CPF))
	_ = v.RegisterValidation("cnpj", str(CNPJ))
	_ = v.RegisterValidation("password", str(Password))
	_ = v.RegisterValidation("datestr", str(Date))
	_ = v.RegisterValidation("notblank", str(NotEmpty))
	_ = v.RegisterValidation("tx_type", str(TransactionType))
	_ = v.RegisterValidation("tx_category", str(TransactionCategory))
	_ = v.RegisterValidation("contrib_type", str(ContributionType))
	_ = v.RegisterValidation("contrib_stat", str(ContributionStatus))
	_ = v.RegisterValidation("priority", str(GoalPriority))
	return v
}

var shared = New()

// Struct validates s and returns field -> message for every failing field.
// A nil map means s is valid.
func Struct(s any) map[string]string {
	err := shared.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = Message(fe.Field(), fe.Tag())
	}
	return out
}

// Message is the pt-BR message for a failing tag.
func Message(field, tag string) string {
	if m, ok := messages[tag]; ok {
		return m
	}
	return fmt.Sprintf("Campo %s é inválido", field)
}
