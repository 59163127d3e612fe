package model

// Sex of a horse as it matters for breeding value.
type Sex string

// Sexes.
const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexGelding Sex = "gelding"
)

// CascadeType is a lifecycle occurrence on a parent asset.
type CascadeType string

// Cascade event types.
const (
	CascadeDeath        CascadeType = "DEATH"
	CascadeInjury       CascadeType = "INJURY"
	CascadeRaceWin      CascadeType = "RACE_WIN"
	CascadeOffspringWin CascadeType = "OFFSPRING_WIN"
)

// CascadeEvent describes something that happened to a parent and may move the
// value of its offspring.
type CascadeEvent struct {
	ParentTokenID     TokenID     `json:"parentTokenId"`
	ParentSex         Sex         `json:"parentSex"`
	Type              CascadeType `json:"eventType"`
	PedigreeScore     int         `json:"pedigreeScore"` // 0..10000
	OffspringCount    int         `json:"offspringCount"`
	CareerThreatening bool        `json:"careerThreatening,omitempty"`
	RaceGrade         string      `json:"raceGrade,omitempty"`
}

// OffspringAdjustment is a multiplicative valuation change for one offspring.
type OffspringAdjustment struct {
	TokenID    TokenID `json:"tokenId"`
	Multiplier float64 `json:"multiplier"`
	Reason     string  `json:"reason"`
}

// OffspringSexMap maps offspring token ids to their sex.
type OffspringSexMap map[TokenID]Sex

// PedigreeNode is one horse in a pedigree graph. SireID and DamID are nil
// when the parent is unknown.
type PedigreeNode struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Sex              Sex     `json:"sex"`
	SireID           *string `json:"sireId"`
	DamID            *string `json:"damId"`
	ConfirmedCarrier bool    `json:"confirmedCarrier,omitempty"`
}

// Pedigree indexes nodes by id.
type Pedigree map[string]PedigreeNode

// NewPedigree indexes a node list.
func NewPedigree(nodes ...PedigreeNode) Pedigree {
	p := make(Pedigree, len(nodes))
	for _, n := range nodes {
		p[n.ID] = n
	}
	return p
}
