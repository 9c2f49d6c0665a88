package models

// ConsentType names the activity a user consents to. Guidance generation is
// gated on TypeWellnessGuidance.
type ConsentType string

const (
	TypeWellnessGuidance ConsentType = "wellness_guidance"
	TypeDataProcessing   ConsentType = "data_processing"
	TypeAIInference      ConsentType = "ai_inference"
	TypePersonalization  ConsentType = "personalization"
)

// ValidConsentTypes is the single source of truth for supported consent types.
var ValidConsentTypes = map[ConsentType]bool{
	TypeWellnessGuidance: true,
	TypeDataProcessing:   true,
	TypeAIInference:      true,
	TypePersonalization:  true,
}

// IsValid checks if the consent type is one of the supported enum values.
func (t ConsentType) IsValid() bool {
	return ValidConsentTypes[t]
}

func (t ConsentType) String() string {
	return string(t)
}

// Status represents the lifecycle state of a consent record.
type Status string

const (
	StatusGranted Status = "granted"
	StatusDenied  Status = "denied" // transient, only for absent records
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusGranted, StatusDenied, StatusExpired, StatusRevoked:
		return true
	}
	return false
}
