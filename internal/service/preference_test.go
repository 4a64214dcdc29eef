package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/d60-Lab/notify-fanout/internal/model"
)

func pref(scope model.ScopeType, scopeID, eventType string, ch model.Channel, status string) model.UserNotificationPreference {
	return model.UserNotificationPreference{ScopeType: scope, ScopeID: scopeID, EventType: eventType, Channel: ch, Status: status}
}

func TestResolveMuted(t *testing.T) {
	q := PreferenceQuery{ThreadID: "t1", ProjectID: "p1", EventType: chatPreferenceType, Channel: model.ChannelInApp}

	tests := []struct {
		name  string
		prefs []model.UserNotificationPreference
		want  bool
	}{
		{"no rows", nil, false},
		{"global mute", []model.UserNotificationPreference{
			pref(model.ScopeGlobal, "", "*", model.ChannelAny, model.PreferenceMuted),
		}, true},
		{"thread allow beats global mute", []model.UserNotificationPreference{
			pref(model.ScopeGlobal, "", "*", model.ChannelAny, model.PreferenceMuted),
			pref(model.ScopeThread, "t1", chatPreferenceType, model.ChannelInApp, "enabled"),
		}, false},
		{"project mute beats global allow", []model.UserNotificationPreference{
			pref(model.ScopeGlobal, "", "*", model.ChannelAny, "enabled"),
			pref(model.ScopeProject, "p1", "*", model.ChannelAny, model.PreferenceMuted),
		}, true},
		{"other thread ignored", []model.UserNotificationPreference{
			pref(model.ScopeThread, "t2", "*", model.ChannelAny, model.PreferenceMuted),
		}, false},
		{"other event type ignored", []model.UserNotificationPreference{
			pref(model.ScopeGlobal, "", "document_uploaded", model.ChannelAny, model.PreferenceMuted),
		}, false},
		{"other channel ignored", []model.UserNotificationPreference{
			pref(model.ScopeGlobal, "", "*", model.ChannelEmail, model.PreferenceMuted),
		}, false},
		{"exact event type wins inside a scope", []model.UserNotificationPreference{
			pref(model.ScopeGlobal, "", "*", model.ChannelAny, model.PreferenceMuted),
			pref(model.ScopeGlobal, "", chatPreferenceType, model.ChannelAny, "enabled"),
		}, false},
		{"exact channel wins over wildcard channel", []model.UserNotificationPreference{
			pref(model.ScopeProject, "p1", "*", model.ChannelAny, "enabled"),
			pref(model.ScopeProject, "p1", "*", model.ChannelInApp, model.PreferenceMuted),
		}, true},
		{"earlier row wins a tie", []model.UserNotificationPreference{
			pref(model.ScopeGlobal, "", "*", model.ChannelAny, model.PreferenceMuted),
			pref(model.ScopeGlobal, "", "*", model.ChannelAny, "enabled"),
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveMuted(tt.prefs, q))
		})
	}
}

func TestResolveMutedEmptyThreadNeverMatches(t *testing.T) {
	prefs := []model.UserNotificationPreference{
		pref(model.ScopeThread, "", "*", model.ChannelAny, model.PreferenceMuted),
	}
	q := PreferenceQuery{ProjectID: "p1", EventType: "document_uploaded", Channel: model.ChannelInApp}
	assert.False(t, ResolveMuted(prefs, q))
}
