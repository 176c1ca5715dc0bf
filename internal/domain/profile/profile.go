package profile

import (
	"time"
)

// Profile is the core matrimony profile row. The serial number is the
// human-readable identifier used in permanent media paths.
type Profile struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SerialNumber string    `json:"serialNumber" gorm:"size:20;uniqueIndex"`
	Name         string    `json:"name" gorm:"size:100"`
	Gender       string    `json:"gender" gorm:"size:10"`
	BirthDate    *time.Time `json:"birthDate"`
	HeightCm     *int      `json:"heightCm"`
	Complexion   string    `json:"complexion" gorm:"size:50"`
	Caste        string    `json:"caste" gorm:"size:100"`
	SubCaste     string    `json:"subCaste" gorm:"size:100"`
	Religion     string    `json:"religion" gorm:"size:100"`
	MaritalStatus string   `json:"maritalStatus" gorm:"size:50"`
	City         string    `json:"city" gorm:"size:100"`
	State        string    `json:"state" gorm:"size:100"`
	Country      string    `json:"country" gorm:"size:100"`
	AboutMe      string    `json:"aboutMe" gorm:"type:text"`
	MobileNumber string    `json:"mobileNumber" gorm:"size:20"`
	IsActive     bool      `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Age derives the profile's age in whole years at the given instant.
func (p *Profile) Age(now time.Time) int {
	if p.BirthDate == nil {
		return 0
	}
	years := now.Year() - p.BirthDate.Year()
	if now.YearDay() < p.BirthDate.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// AstrologyDetails holds the horoscope facts plus the single-valued horoscope
// file slot.
type AstrologyDetails struct {
	ID              uint    `json:"id" gorm:"primaryKey"`
	ProfileID       uint    `json:"profileId" gorm:"not null;uniqueIndex"`
	Star            string  `json:"star" gorm:"size:50"`
	Rasi            string  `json:"rasi" gorm:"size:50"`
	Lagnam          string  `json:"lagnam" gorm:"size:50"`
	BirthPlace      string  `json:"birthPlace" gorm:"size:100"`
	Gotram          string  `json:"gotram" gorm:"size:50"`
	DoshamDetails   string  `json:"doshamDetails" gorm:"type:text"`
	HoroscopeFileID *string `json:"horoscopeFileId" gorm:"size:36;index"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FamilyDetails holds family facts plus the two photo slots and the
// single-valued community-certificate slot. Slot references are non-owning.
type FamilyDetails struct {
	ID               uint    `json:"id" gorm:"primaryKey"`
	ProfileID        uint    `json:"profileId" gorm:"not null;uniqueIndex"`
	FatherName       string  `json:"fatherName" gorm:"size:100"`
	FatherOccupation string  `json:"fatherOccupation" gorm:"size:100"`
	MotherName       string  `json:"motherName" gorm:"size:100"`
	MotherOccupation string  `json:"motherOccupation" gorm:"size:100"`
	TotalSiblings    int     `json:"totalSiblings" gorm:"default:0"`
	MarriedSiblings  int     `json:"marriedSiblings" gorm:"default:0"`
	FamilyType       string  `json:"familyType" gorm:"size:20;default:'nuclear'"`
	FamilyStatus     string  `json:"familyStatus" gorm:"size:100"`
	FamilyValues     string  `json:"familyValues" gorm:"type:text"`
	PhotoFileID1     *string `json:"photoFileId1" gorm:"size:36;index"`
	PhotoFileID2     *string `json:"photoFileId2" gorm:"size:36;index"`
	CommunityFileID  *string `json:"communityFileId" gorm:"size:36;index"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ProfessionalDetails holds education and employment facts.
type ProfessionalDetails struct {
	ID                uint   `json:"id" gorm:"primaryKey"`
	ProfileID         uint   `json:"profileId" gorm:"not null;uniqueIndex"`
	Education         string `json:"education" gorm:"size:100"`
	EducationOptional string `json:"educationOptional" gorm:"size:100"`
	EmploymentType    string `json:"employmentType" gorm:"size:100"`
	Occupation        string `json:"occupation" gorm:"size:100"`
	CompanyName       string `json:"companyName" gorm:"size:200"`
	AnnualIncome      string `json:"annualIncome" gorm:"size:100"`
	WorkLocation      string `json:"workLocation" gorm:"size:100"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// PartnerPreferences holds the subject's match criteria. List-valued
// preferences are stored as comma-separated text; nil/empty means "no
// preference" and is vacuously satisfied during scoring.
type PartnerPreferences struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ProfileID  uint `json:"profileId" gorm:"not null;uniqueIndex"`
	AgeFrom    *int `json:"ageFrom"`
	AgeTo      *int `json:"ageTo"`
	HeightFrom *int `json:"heightFrom"`
	HeightTo   *int `json:"heightTo"`

	EducationPreference  string `json:"educationPreference" gorm:"type:text"`
	OccupationPreference string `json:"occupationPreference" gorm:"type:text"`
	IncomePreference     string `json:"incomePreference" gorm:"type:text"`
	LocationPreference   string `json:"locationPreference" gorm:"type:text"`
	StarPreference       string `json:"starPreference" gorm:"type:text"`
	RasiPreference       string `json:"rasiPreference" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Gender constants shared with the user domain.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// OppositeGender returns the candidate-pool gender for the platform's
// matching convention.
func OppositeGender(g string) string {
	switch g {
	case GenderMale:
		return GenderFemale
	case GenderFemale:
		return GenderMale
	default:
		return ""
	}
}
