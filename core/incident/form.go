package incident

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/openaid/respond/core/model"
)

// Form is the incident creation request. Team ids are either
// "team-shiftKey" roster keys or the all-responders sentinel.
type Form struct {
	ReporterName    string         `json:"reporter_name" validate:"required"`
	ReporterContact string         `json:"reporter_contact" validate:"required"`
	Severity        string         `json:"severity" validate:"required"`
	Type            string         `json:"type" validate:"required"`
	Location        model.Location `json:"location"`
	TeamIDs         []string       `json:"team_ids" validate:"required,min=1,dive,required"`
	Notes           string         `json:"notes"`
}

var formValidator = validator.New()

// validate checks required fields and coordinate resolution. All
// validation failures surface before any remote write.
func (f Form) validate() error {
	if err := formValidator.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if f.Location.Address == "" {
		return fmt.Errorf("%w: location address missing", ErrValidation)
	}
	return nil
}
