package controllers

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rakeshsingh12700/dearstudent62-storefront/services"
)

// RegisterValidators adds the storefront's binding tags to gin's validator.
// It must run before any handler binds a request that uses them.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("couponcode", validCouponCode)
}

// validCouponCode accepts any input that normalizes to a well-formed code.
func validCouponCode(fl validator.FieldLevel) bool {
	return services.IsValidCouponCode(services.NormalizeCouponCode(fl.Field().String()))
}
