package model

import "time"

// Well-known setting keys. Settings are stored as a flat key -> string
// mapping; these are the keys the dispatch pipeline reads.
const (
	SettingDefaultTemplateID = "defaultTemplateId"
	SettingSendTime          = "sendTime"
	SettingTimezone          = "timezone"
	SettingCompanyName       = "companyName"
)

// Setting represents a single key/value configuration row
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
