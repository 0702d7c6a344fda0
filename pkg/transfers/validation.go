package transfers

import (
	"reflect"
	"strings"
	"time"

	"gopkg.in/go-playground/validator.v9"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/types"
)

var ruleMessages = map[string]func(param string) string{
	"required":       func(string) string { return "is required" },
	"min":            func(param string) string { return "must be at least " + param + " characters" },
	"max":            func(param string) string { return "must be at most " + param + " characters" },
	"oneof":          func(param string) string { return "must be one of: " + param },
	"account_number": func(string) string { return "must be 8 to 12 digits" },
	"gt":             func(param string) string { return "must be greater than " + param },
	"gte":            func(param string) string { return "must be at least " + param },
	"future":         func(string) string { return "must be in the future" },
	"account_exists": func(string) string { return "is not a known account" },
}

func ruleMessage(rule string, param string) string {
	if msg, ok := ruleMessages[rule]; ok {
		return msg(param)
	}
	return "is invalid"
}

func newInputValidator(now func() time.Time) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("account_number", func(fl validator.FieldLevel) bool {
		return types.AccountNumber(fl.Field().String()).IsValidRecipient()
	}); err != nil {
		panic(err)
	}
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		input := sl.Current().Interface().(Input)
		if !input.Amount.IsPositive() {
			sl.ReportError(input.Amount, "amount", "Amount", "gt", "0")
		}
		if input.Fee != nil && input.Fee.IsNegative() {
			sl.ReportError(input.Fee, "fee", "Fee", "gte", "0")
		}
		if input.Timing == TimingScheduled {
			if input.ScheduledAt == nil {
				sl.ReportError(input.ScheduledAt, "scheduledAt", "ScheduledAt", "required", "")
			} else if !input.ScheduledAt.After(now()) {
				sl.ReportError(input.ScheduledAt, "scheduledAt", "ScheduledAt", "future", "")
			}
		}
	}, Input{})
	return v
}

// validateInput checks all fields in one pass. Returns nil if the input is valid
func validateInput(v *validator.Validate, input Input) ([]FieldError, error) {
	err := v.Struct(input)
	if err == nil {
		return nil, nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, err
	}
	fields := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: ruleMessage(fe.Tag(), fe.Param()),
		})
	}
	return fields, nil
}
