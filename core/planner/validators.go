package planner

import (
	"fmt"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/ratiba/core"
)

var (
	timeStrTag   = "timestr"
	timeStrText  = "must be a valid HH:mm time"
	timeStrRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	dateStrTag  = "datestr"
	dateStrText = "must be a valid YYYY-MM-DD date"

	categoryTag  = "category"
	categoryText = "must be one of: study, execution, review"

	blockStatusTag  = "blockstatus"
	blockStatusText = "must be one of: scheduled, completed, skipped"

	// minimum similarity for a "did you mean" window suggestion
	windowMinSim = .5
)

// InitValidators registers the planner's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(timeStrTag, timeStrValidation)
	core.RegisterCustomTranslation(validate, translator, timeStrTag, timeStrText)

	_ = validate.RegisterValidation(dateStrTag, dateStrValidation)
	core.RegisterCustomTranslation(validate, translator, dateStrTag, dateStrText)

	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)

	_ = validate.RegisterValidation(blockStatusTag, blockStatusValidation)
	core.RegisterCustomTranslation(validate, translator, blockStatusTag, blockStatusText)
}

// Custom Validators

// timeStrValidation checks for a zero-padded 24h "HH:mm" time of day.
func timeStrValidation(fl validator.FieldLevel) bool {
	return timeStrRegex.MatchString(fl.Field().String())
}

// dateStrValidation checks for a "YYYY-MM-DD" calendar date.
func dateStrValidation(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}

func categoryValidation(fl validator.FieldLevel) bool {
	cat := Category(fl.Field().String())
	for _, c := range AllCategories {
		if cat == c {
			return true
		}
	}
	return false
}

func blockStatusValidation(fl validator.FieldLevel) bool {
	status := Status(fl.Field().String())
	for _, s := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// validateWindow checks a preferred window name; unknown values get a
// "did you mean" suggestion based on string similarity.
func validateWindow(w Window) error {
	for _, known := range AllWindows {
		if w == known {
			return nil
		}
	}

	text := "unknown window; must be one of: morning, afternoon, evening, all"
	if match := closestWindow(string(w)); match != "" {
		text = fmt.Sprintf("unknown window; did you mean %q?", match)
	}
	return core.NewValidationError(nil, core.FieldError{Field: "preferred_window", Error: text})
}

func closestWindow(w string) string {
	var best string
	bestRatio := windowMinSim
	for _, known := range AllWindows {
		ratio := difflib.NewMatcher(strings.Split(w, ""), strings.Split(string(known), "")).QuickRatio()
		if ratio >= bestRatio {
			best, bestRatio = string(known), ratio
		}
	}
	return best
}
