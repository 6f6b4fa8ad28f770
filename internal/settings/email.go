package settings

import "strings"

// EmailSettings are the user-level sender preferences persisted locally
// and merged into every dispatch request.
type EmailSettings struct {
	Provider     string `json:"provider"`
	SenderName   string `json:"senderName"`
	SenderEmail  string `json:"senderEmail"`
	ReplyTo      string `json:"replyTo"`
	MandatoryCc  string `json:"mandatoryCc"`
	AdditionalCc string `json:"additionalCc"`
	TestMode     bool   `json:"testMode"`
}

// DefaultEmailSettings returns the settings used when nothing is stored.
// mandatoryCc is the compliance address and cannot be overridden.
func DefaultEmailSettings(mandatoryCc, senderName string) EmailSettings {
	return EmailSettings{
		Provider:    "smtp",
		SenderName:  senderName,
		MandatoryCc: mandatoryCc,
	}
}

// CcList splits the additional CC field into a clean recipient list.
// Entries are comma-separated; blanks are dropped. Returns nil when the
// field is empty so the request serializer omits it entirely.
func (s EmailSettings) CcList() []string {
	if strings.TrimSpace(s.AdditionalCc) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s.AdditionalCc, ",") {
		if e := strings.TrimSpace(part); e != "" {
			out = append(out, e)
		}
	}
	return out
}
