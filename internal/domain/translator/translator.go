package translator

import (
	"time"

	"github.com/google/uuid"
)

// Proficiency grades a translator's command of a language.
type Proficiency string

const (
	ProficiencyBasic        Proficiency = "BASIC"
	ProficiencyIntermediate Proficiency = "INTERMEDIATE"
	ProficiencyAdvanced     Proficiency = "ADVANCED"
	ProficiencyNative       Proficiency = "NATIVE"
	ProficiencyCertified    Proficiency = "CERTIFIED"
)

// Language is a verification fact: a translator may only accept requests
// whose target language they hold with IsVerified set. Verification is an
// admin decision made after certification review.
type Language struct {
	TranslatorID uuid.UUID
	LanguageCode string
	Proficiency  Proficiency
	IsVerified   bool
	CreatedAt    time.Time
}
