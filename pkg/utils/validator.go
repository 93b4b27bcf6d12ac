package utils

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
			role := fl.Field().String()
			return role == "user" || role == "admin"
		})
		_ = validate.RegisterValidation("robot_status", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "Idle", "Delivering", "Charging", "Maintenance":
				return true
			}
			return false
		})
		_ = validate.RegisterValidation("robot_kind", func(fl validator.FieldLevel) bool {
			kind := fl.Field().String()
			return kind == "GroundCourier" || kind == "Drone"
		})
		_ = validate.RegisterValidation("node_type", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "pickup", "dropoff", "charging", "depot", "user":
				return true
			}
			return false
		})
		_ = validate.RegisterValidation("payer", func(fl validator.FieldLevel) bool {
			payer := strings.ToLower(fl.Field().String())
			return payer == "sender" || payer == "recipient"
		})
	})
	return validate
}

// ValidateStruct runs the `validate` tags on s and flattens failures into one error.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		messages = append(messages, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}
