package permit

import "encoding/json"

// issueIn is the request body for raising a new permit.
type issueIn struct {
	PermitTypeID uint   `json:"permitTypeId" validate:"required,min=1,max=4"`
	UserID       uint64 `json:"userId"       validate:"required"`

	// Detail carries the type specific detail fields and is decoded
	// into the matching detail struct once the type is known.
	Detail json.RawMessage `json:"detail" validate:"required"`

	Files []fileIn `json:"files"`
}

// fileIn is one attachment submitted inline, base64 payload.
type fileIn struct {
	FileName  string `json:"fileName"  validate:"required"`
	MediaType string `json:"mediaType"`
	Content   []byte `json:"content"`
}

// updateIn is the request body for a stage update.
type updateIn struct {
	UserID uint64         `json:"userId" validate:"required"`
	Fields map[string]any `json:"fields"`
	Files  []fileIn       `json:"files"`
}

// actorIn is the request body for approve and close actions.
type actorIn struct {
	UserID uint64   `json:"userId" validate:"required"`
	Files  []fileIn `json:"files"`
}

// reasonIn is the request body for hold and reject actions.
type reasonIn struct {
	Reason string `json:"reason" validate:"required"`
}

// reopenIn is the request body for reopening an expired permit.
type reopenIn struct {
	ExpiredPermitID uint64 `json:"expiredPermitId" validate:"required"`
	UserID          uint64 `json:"userId"          validate:"required"`
	PermitValidUpTo string `json:"permitValidUpTo" validate:"required"`
}
