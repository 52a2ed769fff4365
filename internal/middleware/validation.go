package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the domain validators on gin's binding
// engine and makes validation errors report json field names. Call once
// at startup.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	if err := v.RegisterValidation("cpf", validCPF); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("cns", validCNS); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}

// validCPF checks the CPF check digits. Punctuation is tolerated; a
// value of eleven repeated digits is invalid even though the digits
// check out.
func validCPF(fl validator.FieldLevel) bool {
	digits := onlyDigits(fl.Field().String())
	if len(digits) != 11 {
		return false
	}
	same := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}
	return cpfCheckDigit(digits, 9) == int(digits[9]-'0') &&
		cpfCheckDigit(digits, 10) == int(digits[10]-'0')
}

func cpfCheckDigit(digits string, length int) int {
	sum := 0
	for i := 0; i < length; i++ {
		sum += int(digits[i]-'0') * (length + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

// validCNS accepts a fifteen-digit national health card number.
func validCNS(fl validator.FieldLevel) bool {
	return len(onlyDigits(fl.Field().String())) == 15
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
