package agoratoken

import (
	"errors"
	"testing"
	"time"
)

func TestBuildRTCTokenPublisher(t *testing.T) {
	encoded, err := BuildRTCToken(testAppID, testAppCert, "room42", 1002, RolePublisher, 30*time.Minute)
	if err != nil {
		t.Fatalf("BuildRTCToken() error = %v", err)
	}

	parsed, err := Verify(encoded, testAppCert)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if parsed.Expire != 1800 {
		t.Fatalf("Expire = %d, want 1800", parsed.Expire)
	}

	svc, ok := parsed.Service(ServiceTypeRTC)
	if !ok {
		t.Fatalf("token has no RTC service")
	}
	rtc := svc.(*RTCService)
	if rtc.Channel != "room42" || rtc.UID != "1002" {
		t.Fatalf("tuple = (%q, %q), want (room42, 1002)", rtc.Channel, rtc.UID)
	}

	privs := Privileges(rtc)
	for _, p := range []uint16{PrivJoinChannel, PrivPublishAudioStream, PrivPublishVideoStream, PrivPublishDataStream} {
		if privs[p] != 1800 {
			t.Fatalf("privilege %d = %d, want 1800", p, privs[p])
		}
	}
}

func TestBuildRTCTokenSubscriberGrantsJoinOnly(t *testing.T) {
	encoded, err := BuildRTCToken(testAppID, testAppCert, "room42", 1002, RoleSubscriber, time.Hour)
	if err != nil {
		t.Fatalf("BuildRTCToken() error = %v", err)
	}
	parsed, err := Verify(encoded, testAppCert)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	svc, _ := parsed.Service(ServiceTypeRTC)
	privs := Privileges(svc)
	if len(privs) != 1 || privs[PrivJoinChannel] != 3600 {
		t.Fatalf("subscriber privileges = %v, want join only", privs)
	}
}

func TestBuildRTCTokenDefaultsTTL(t *testing.T) {
	encoded, err := BuildRTCToken(testAppID, testAppCert, "room42", 1002, RolePublisher, 0)
	if err != nil {
		t.Fatalf("BuildRTCToken() error = %v", err)
	}
	parsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.Expire != 3600 {
		t.Fatalf("Expire = %d, want default 3600", parsed.Expire)
	}
}

func TestBuildRTCTokenValidatesInputs(t *testing.T) {
	if _, err := BuildRTCToken(testAppID, testAppCert, "", 1002, RolePublisher, time.Hour); !errors.Is(err, ErrEmptyChannel) {
		t.Fatalf("empty channel error = %v, want ErrEmptyChannel", err)
	}
	if _, err := BuildRTCToken(testAppID, testAppCert, "room42", 0, RolePublisher, time.Hour); err == nil {
		t.Fatalf("uid 0 must be rejected")
	}
	if _, err := BuildRTCToken("bad", testAppCert, "room42", 1002, RolePublisher, time.Hour); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("bad app id error = %v, want ErrInvalidCredential", err)
	}
}

func TestBuildRTMToken(t *testing.T) {
	encoded, err := BuildRTMToken(testAppID, testAppCert, "patient-12", 0)
	if err != nil {
		t.Fatalf("BuildRTMToken() error = %v", err)
	}
	parsed, err := Verify(encoded, testAppCert)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if parsed.Expire != 3600 {
		t.Fatalf("Expire = %d, want default 3600", parsed.Expire)
	}
	svc, ok := parsed.Service(ServiceTypeRTM)
	if !ok {
		t.Fatalf("token has no RTM service")
	}
	if svc.(*RTMService).UserID != "patient-12" {
		t.Fatalf("UserID = %q, want patient-12", svc.(*RTMService).UserID)
	}

	if _, err := BuildRTMToken(testAppID, testAppCert, "", time.Hour); err == nil {
		t.Fatalf("empty user id must be rejected")
	}
}
