package alert

import (
	"fmt"
	"strings"
)

// Messages holds the alert texts of one locale. Title and Body take the
// current count and the threshold, the buttons take their parameter.
type Messages struct {
	Title        string
	Body         string
	CloseButton  string
	SnoozeButton string
}

const fallbackLocale = "en"

var catalog = map[string]Messages{
	"en": {
		Title:        "Too many tabs open",
		Body:         "You have %d tabs open, your limit is %d.",
		CloseButton:  "Close %d oldest",
		SnoozeButton: "Snooze %d min",
	},
	"ko": {
		Title:        "탭이 너무 많이 열려 있습니다",
		Body:         "현재 %d개의 탭이 열려 있습니다 (기준: %d개).",
		CloseButton:  "오래된 탭 %d개 닫기",
		SnoozeButton: "%d분 동안 알림 끄기",
	},
}

// MessagesFor returns the catalog entry for locale. Region suffixes are
// ignored ("ko-KR" uses "ko") and unknown locales fall back to English.
func MessagesFor(locale string) Messages {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(locale)), "-")
	base, _, _ = strings.Cut(base, "_")
	if m, ok := catalog[base]; ok {
		return m
	}
	return catalog[fallbackLocale]
}

func (m Messages) render(current, threshold, closeCount, snoozeMinutes int) Alert {
	return Alert{
		Title: m.Title,
		Body:  fmt.Sprintf(m.Body, current, threshold),
		Buttons: [2]string{
			fmt.Sprintf(m.CloseButton, closeCount),
			fmt.Sprintf(m.SnoozeButton, snoozeMinutes),
		},
		Current:   current,
		Threshold: threshold,
	}
}
