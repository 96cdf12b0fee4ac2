package models

import "time"

// Detail is implemented by the four typed permit detail records. The
// engine works against the shared core; type specific checklists only
// matter to issuance and read paths.
type Detail interface {
	Core() *DetailCore
	TableName() string
}

// DetailCore is the shape shared by every permit detail table: the work
// metadata, the validity window, the common PPE checklist and the five
// stage slots.
type DetailCore struct {
	PermitID uint64 `gorm:"primaryKey"`

	PermitDate            *time.Time
	NearestFireAlarmPoint string `gorm:"size:255"`
	TotalEngagedWorkers   int
	WorkLocation          string `gorm:"size:255"`
	WorkDescription       string `gorm:"type:text"`

	// PermitValidUpTo is the end of the validity window; the expiry
	// sweep compares it against the current time.
	PermitValidUpTo *time.Time

	Organization   string `gorm:"size:255"`
	SupervisorName string `gorm:"size:255"`
	ContactNumber  string `gorm:"size:50"`

	IsolationRequired bool

	// Reason records why a permit was held or rejected.
	Reason        string `gorm:"size:500"`
	AdditionalPpe string `gorm:"size:500"`

	CommonPPE `gorm:"embedded"`

	Issuer        StageSlot `gorm:"embedded;embeddedPrefix:issuer_"`
	Receiver      StageSlot `gorm:"embedded;embeddedPrefix:receiver_"`
	EnergyIsolate StageSlot `gorm:"embedded;embeddedPrefix:isolate_"`
	Reviewer      StageSlot `gorm:"embedded;embeddedPrefix:reviewer_"`
	Approver      StageSlot `gorm:"embedded;embeddedPrefix:approver_"`

	CreatedBy string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Slot returns the stage slot for s, or nil for an unknown stage.
func (c *DetailCore) Slot(s Stage) *StageSlot {
	switch s {
	case StageIssuer:
		return &c.Issuer
	case StageReceiver:
		return &c.Receiver
	case StageIsolation:
		return &c.EnergyIsolate
	case StageReviewer:
		return &c.Reviewer
	case StageApprover:
		return &c.Approver
	default:
		return nil
	}
}

// CommonPPE is the personal protective equipment checklist shared by
// all permit types.
type CommonPPE struct {
	SafetyHelmet   bool
	SafetyJacket   bool
	SafetyShoes    bool
	Gloves         bool
	SafetyGoggles  bool
	FaceShield     bool
	DustMask       bool
	EarPlugEarmuff bool
}

// HeightChecklist is the safety checklist specific to height work.
type HeightChecklist struct {
	ScaffoldChecked      bool
	ScaffoldTagged       bool
	PlatformSafe         bool
	EdgeProtection       bool
	SafetyHarness        bool
	SafetyNet            bool
	AnchorPointLifelines bool
	FullBodyHarness      bool
}

// HotChecklist is the safety checklist specific to hot work.
type HotChecklist struct {
	WorkAreaInspected      bool
	SurroundingAreaChecked bool
	SewersCovered          bool
	WarningSigns           bool
	FireEquipmentAccess    bool
	WeldingEquipment       bool
	LockoutTagout          bool
	CombustibleGases       bool
}

// ElectricChecklist is the safety checklist specific to electric work.
type ElectricChecklist struct {
	CircuitBreakerOff   bool
	DeEnergized         bool
	LockoutTagout       bool
	TestingEquipment    bool
	DryArea             bool
	EmergencyProcedures bool
	InsulatedGloves     bool
	InsulatedMat        bool
}

// GeneralChecklist is the safety checklist for general work.
type GeneralChecklist struct {
	WorkAreaInspected bool
	WorkersInstructed bool
	WarningSigns      bool
	SlipTripFall      bool
	FallingObjects    bool
	ManualHandling    bool
	GumBoot           bool
	ThermalCloth      bool
}

// HeightWorkDetail is the detail row for a height work permit.
type HeightWorkDetail struct {
	DetailCore      `gorm:"embedded"`
	HeightChecklist `gorm:"embedded"`
}

// Core returns the shared detail core.
func (d *HeightWorkDetail) Core() *DetailCore { return &d.DetailCore }

// TableName specifies the database table name for height work details.
func (HeightWorkDetail) TableName() string { return "height_work_permits" }

// HotWorkDetail is the detail row for a hot work permit.
type HotWorkDetail struct {
	DetailCore   `gorm:"embedded"`
	HotChecklist `gorm:"embedded"`
}

// Core returns the shared detail core.
func (d *HotWorkDetail) Core() *DetailCore { return &d.DetailCore }

// TableName specifies the database table name for hot work details.
func (HotWorkDetail) TableName() string { return "hot_work_permits" }

// ElectricWorkDetail is the detail row for an electric work permit.
type ElectricWorkDetail struct {
	DetailCore        `gorm:"embedded"`
	ElectricChecklist `gorm:"embedded"`
}

// Core returns the shared detail core.
func (d *ElectricWorkDetail) Core() *DetailCore { return &d.DetailCore }

// TableName specifies the database table name for electric work details.
func (ElectricWorkDetail) TableName() string { return "electric_work_permits" }

// GeneralWorkDetail is the detail row for a general work permit.
type GeneralWorkDetail struct {
	DetailCore       `gorm:"embedded"`
	GeneralChecklist `gorm:"embedded"`
}

// Core returns the shared detail core.
func (d *GeneralWorkDetail) Core() *DetailCore { return &d.DetailCore }

// TableName specifies the database table name for general work details.
func (GeneralWorkDetail) TableName() string { return "general_work_permits" }
