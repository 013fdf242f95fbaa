package audit

import (
	"fmt"
	"time"
)

// StoreEvent records an attempt to store a private key version.
type StoreEvent struct {
	Subject      string
	ClientIP     string
	Path         string
	Success      bool
	ErrorMessage string
}

func (e StoreEvent) MessageID() string {
	return "store"
}

func (e StoreEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s stored a new version of %s", e.Subject, e.Path)
	}
	msg := fmt.Sprintf("%s tried to store a new version of %s", e.Subject, e.Path)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e StoreEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e StoreEvent) Facility() int {
	return FacilityAuthPriv
}

func (e StoreEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Subject,
		},
		SDIDSubject: {
			"resource": e.Path,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "store",
		},
	}
	if e.Success {
		sd[SDIDAction]["result"] = "success"
	} else {
		sd[SDIDAction]["result"] = "failure"
	}
	return sd
}

// FetchEvent records an attempt to fetch a private key version.
type FetchEvent struct {
	Subject      string
	ClientIP     string
	Path         string
	Success      bool
	ErrorMessage string
}

func (e FetchEvent) MessageID() string {
	return "fetch"
}

func (e FetchEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s fetched %s", e.Subject, e.Path)
	}
	msg := fmt.Sprintf("%s tried to fetch %s", e.Subject, e.Path)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e FetchEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e FetchEvent) Facility() int {
	return FacilityAuthPriv
}

func (e FetchEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Subject,
		},
		SDIDSubject: {
			"resource": e.Path,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "fetch",
		},
	}
	if e.Success {
		sd[SDIDAction]["result"] = "success"
	} else {
		sd[SDIDAction]["result"] = "failure"
	}
	return sd
}

// RotateRefusedEvent records a refused key rotation request.
type RotateRefusedEvent struct {
	Subject  string
	ClientIP string
	Name     string
}

func (e RotateRefusedEvent) MessageID() string {
	return "rotate"
}

func (e RotateRefusedEvent) Message() string {
	return fmt.Sprintf("%s requested rotation of %s; refused", e.Subject, e.Name)
}

func (e RotateRefusedEvent) Severity() Severity {
	return SeverityNotice
}

func (e RotateRefusedEvent) Facility() int {
	return FacilityAuthPriv
}

func (e RotateRefusedEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Subject,
		},
		SDIDSubject: {
			"resource": e.Name,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "rotate",
			"result":    "refused",
		},
	}
}

// TokenIssuedEvent records issuance of an API token.
type TokenIssuedEvent struct {
	Subject   string
	TokenID   string
	ExpiresAt time.Time
}

func (e TokenIssuedEvent) MessageID() string {
	return "token"
}

func (e TokenIssuedEvent) Message() string {
	return fmt.Sprintf("issued token %s for %s, expires %s", e.TokenID, e.Subject, e.ExpiresAt.UTC().Format(time.RFC3339))
}

func (e TokenIssuedEvent) Severity() Severity {
	return SeverityInfo
}

func (e TokenIssuedEvent) Facility() int {
	return FacilityAuthPriv
}

func (e TokenIssuedEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user":  e.Subject,
			"token": e.TokenID,
		},
		SDIDAction: {
			"operation": "token-issue",
			"result":    "success",
		},
	}
}

// RotationDueEvent records that a stored secret version is past its
// advisory rotation time. Purely informational; nothing is enforced.
type RotationDueEvent struct {
	Path         string
	NextRotation time.Time
}

func (e RotationDueEvent) MessageID() string {
	return "rotation-due"
}

func (e RotationDueEvent) Message() string {
	return fmt.Sprintf("%s is past its advisory rotation time of %s", e.Path, e.NextRotation.UTC().Format(time.RFC3339))
}

func (e RotationDueEvent) Severity() Severity {
	return SeverityNotice
}

func (e RotationDueEvent) Facility() int {
	return FacilityAuthPriv
}

func (e RotationDueEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			"resource": e.Path,
			"due":      e.NextRotation.UTC().Format(time.RFC3339),
		},
		SDIDAction: {
			"operation": "rotation-sweep",
			"result":    "due",
		},
	}
}
