// Package agoratoken builds and verifies Agora AccessToken2 ("007")
// credentials for the RTC media channel and RTM signaling.
//
// An AccessToken2 is a zlib-compressed, base64-encoded binary blob: the app
// id, issue timestamp, expiry, salt and the per-service privilege maps, all
// little-endian and length-prefixed, signed with HMAC-SHA256. The signing key
// is derived from the app certificate keyed first by the issue timestamp and
// then by the salt.
package agoratoken

import (
	"bytes"
	"compress/zlib"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"time"
)

// Version prefix of every AccessToken2.
const Version = "007"

const (
	ServiceTypeRTC uint16 = 1
	ServiceTypeRTM uint16 = 2
)

// RTC channel privileges.
const (
	PrivJoinChannel        uint16 = 1
	PrivPublishAudioStream uint16 = 2
	PrivPublishVideoStream uint16 = 3
	PrivPublishDataStream  uint16 = 4
)

// RTM privileges.
const (
	PrivLogin uint16 = 1
)

var (
	// ErrInvalidCredential is returned when the app id or certificate is not
	// a 32 character hex string. This is a deployment problem, not a request
	// problem.
	ErrInvalidCredential = errors.New("app id and certificate must be 32-character hex strings")

	// ErrMalformedToken is returned by Parse/Verify for blobs that do not
	// decode as an AccessToken2.
	ErrMalformedToken = errors.New("malformed access token")

	// ErrSignatureMismatch is returned by Verify when the signature does not
	// match the token contents for the given certificate.
	ErrSignatureMismatch = errors.New("token signature mismatch")

	// ErrTokenExpired is returned by Verify for a well-signed token whose
	// TTL has elapsed.
	ErrTokenExpired = errors.New("token expired")
)

// Service is one scoped capability block inside a token.
type Service interface {
	ServiceType() uint16
	Pack(buf *bytes.Buffer) error
}

type baseService struct {
	svcType    uint16
	privileges map[uint16]uint32
}

func (s *baseService) ServiceType() uint16 { return s.svcType }

// AddPrivilege grants a privilege for expireSeconds from the token issue time.
func (s *baseService) AddPrivilege(privilege uint16, expireSeconds uint32) {
	s.privileges[privilege] = expireSeconds
}

func (s *baseService) packBase(buf *bytes.Buffer) error {
	if err := packUint16(buf, s.svcType); err != nil {
		return err
	}
	return packPrivileges(buf, s.privileges)
}

// RTCService scopes a token to one (channel, uid) pair.
type RTCService struct {
	baseService
	Channel string
	UID     string
}

func NewRTCService(channel, uid string) *RTCService {
	return &RTCService{
		baseService: baseService{svcType: ServiceTypeRTC, privileges: map[uint16]uint32{}},
		Channel:     channel,
		UID:         uid,
	}
}

func (s *RTCService) Pack(buf *bytes.Buffer) error {
	if err := s.packBase(buf); err != nil {
		return err
	}
	if err := packString(buf, s.Channel); err != nil {
		return err
	}
	return packString(buf, s.UID)
}

// RTMService scopes a token to one signaling user id.
type RTMService struct {
	baseService
	UserID string
}

func NewRTMService(userID string) *RTMService {
	return &RTMService{
		baseService: baseService{svcType: ServiceTypeRTM, privileges: map[uint16]uint32{}},
		UserID:      userID,
	}
}

func (s *RTMService) Pack(buf *bytes.Buffer) error {
	if err := s.packBase(buf); err != nil {
		return err
	}
	return packString(buf, s.UserID)
}

// AccessToken assembles the signed credential. Expire and every privilege
// value are seconds relative to IssueTs.
type AccessToken struct {
	AppID    string
	AppCert  string
	IssueTs  uint32
	Expire   uint32
	Salt     uint32
	services map[uint16]Service
}

func New(appID, appCert string, expireSeconds uint32) *AccessToken {
	return &AccessToken{
		AppID:    appID,
		AppCert:  appCert,
		IssueTs:  uint32(time.Now().Unix()),
		Expire:   expireSeconds,
		Salt:     rand.Uint32N(99999999) + 1,
		services: map[uint16]Service{},
	}
}

func (t *AccessToken) AddService(s Service) {
	if t.services == nil {
		t.services = map[uint16]Service{}
	}
	t.services[s.ServiceType()] = s
}

// Service returns the packed service of the given type, if present.
func (t *AccessToken) Service(svcType uint16) (Service, bool) {
	s, ok := t.services[svcType]
	return s, ok
}

// Build signs and serializes the token.
func (t *AccessToken) Build() (string, error) {
	if !isHexKey(t.AppID) || !isHexKey(t.AppCert) {
		return "", ErrInvalidCredential
	}

	body := new(bytes.Buffer)
	if err := packString(body, t.AppID); err != nil {
		return "", err
	}
	if err := packUint32(body, t.IssueTs); err != nil {
		return "", err
	}
	if err := packUint32(body, t.Expire); err != nil {
		return "", err
	}
	if err := packUint32(body, t.Salt); err != nil {
		return "", err
	}
	if err := packUint16(body, uint16(len(t.services))); err != nil {
		return "", err
	}
	for _, svcType := range sortedServiceTypes(t.services) {
		if err := t.services[svcType].Pack(body); err != nil {
			return "", err
		}
	}

	signature := signBody(t.AppCert, t.IssueTs, t.Salt, body.Bytes())

	content := new(bytes.Buffer)
	if err := packString(content, string(signature)); err != nil {
		return "", err
	}
	content.Write(body.Bytes())

	compressed := new(bytes.Buffer)
	zw := zlib.NewWriter(compressed)
	if _, err := zw.Write(content.Bytes()); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	return Version + base64.StdEncoding.EncodeToString(compressed.Bytes()), nil
}

// Parse decodes a token without checking its signature. The returned token
// has no certificate; use Verify when the certificate is available.
func Parse(token string) (*AccessToken, error) {
	t, _, err := parse(token)
	return t, err
}

// Verify decodes a token and checks its signature against appCert.
func Verify(token, appCert string) (*AccessToken, error) {
	t, sig, err := parse(token)
	if err != nil {
		return nil, err
	}
	t.AppCert = appCert

	body := new(bytes.Buffer)
	if err := packString(body, t.AppID); err != nil {
		return nil, err
	}
	if err := packUint32(body, t.IssueTs); err != nil {
		return nil, err
	}
	if err := packUint32(body, t.Expire); err != nil {
		return nil, err
	}
	if err := packUint32(body, t.Salt); err != nil {
		return nil, err
	}
	if err := packUint16(body, uint16(len(t.services))); err != nil {
		return nil, err
	}
	for _, svcType := range sortedServiceTypes(t.services) {
		if err := t.services[svcType].Pack(body); err != nil {
			return nil, err
		}
	}

	want := signBody(appCert, t.IssueTs, t.Salt, body.Bytes())
	if !hmac.Equal(sig, want) {
		return nil, ErrSignatureMismatch
	}
	if t.Expired(time.Now()) {
		return nil, ErrTokenExpired
	}
	return t, nil
}

// Expired reports whether the token's TTL has elapsed at now. Expire is
// relative to IssueTs; a zero Expire never expires.
func (t *AccessToken) Expired(now time.Time) bool {
	if t.Expire == 0 {
		return false
	}
	return now.Unix() > int64(t.IssueTs)+int64(t.Expire)
}

func parse(token string) (*AccessToken, []byte, error) {
	if len(token) <= len(Version) || token[:len(Version)] != Version {
		return nil, nil, fmt.Errorf("missing %q prefix: %w", Version, ErrMalformedToken)
	}
	compressed, err := base64.StdEncoding.DecodeString(token[len(Version):])
	if err != nil {
		return nil, nil, fmt.Errorf("base64 decode: %w", ErrMalformedToken)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, nil, fmt.Errorf("zlib open: %w", ErrMalformedToken)
	}
	defer zr.Close()
	content, err := io.ReadAll(zr)
	if err != nil {
		return nil, nil, fmt.Errorf("zlib read: %w", ErrMalformedToken)
	}

	r := bytes.NewReader(content)
	sig, err := readString(r)
	if err != nil {
		return nil, nil, fmt.Errorf("signature: %w", ErrMalformedToken)
	}
	t := &AccessToken{services: map[uint16]Service{}}
	appID, err := readString(r)
	if err != nil {
		return nil, nil, fmt.Errorf("app id: %w", ErrMalformedToken)
	}
	t.AppID = string(appID)
	if t.IssueTs, err = readUint32(r); err != nil {
		return nil, nil, fmt.Errorf("issue ts: %w", ErrMalformedToken)
	}
	if t.Expire, err = readUint32(r); err != nil {
		return nil, nil, fmt.Errorf("expire: %w", ErrMalformedToken)
	}
	if t.Salt, err = readUint32(r); err != nil {
		return nil, nil, fmt.Errorf("salt: %w", ErrMalformedToken)
	}
	count, err := readUint16(r)
	if err != nil {
		return nil, nil, fmt.Errorf("service count: %w", ErrMalformedToken)
	}
	for i := uint16(0); i < count; i++ {
		svc, err := readService(r)
		if err != nil {
			return nil, nil, err
		}
		t.services[svc.ServiceType()] = svc
	}
	return t, sig, nil
}

func readService(r *bytes.Reader) (Service, error) {
	svcType, err := readUint16(r)
	if err != nil {
		return nil, fmt.Errorf("service type: %w", ErrMalformedToken)
	}
	privileges, err := readPrivileges(r)
	if err != nil {
		return nil, fmt.Errorf("privileges: %w", ErrMalformedToken)
	}
	switch svcType {
	case ServiceTypeRTC:
		channel, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("channel: %w", ErrMalformedToken)
		}
		uid, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("uid: %w", ErrMalformedToken)
		}
		svc := NewRTCService(string(channel), string(uid))
		svc.privileges = privileges
		return svc, nil
	case ServiceTypeRTM:
		userID, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("user id: %w", ErrMalformedToken)
		}
		svc := NewRTMService(string(userID))
		svc.privileges = privileges
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown service type %d: %w", svcType, ErrMalformedToken)
	}
}

// Privileges exposes the granted privilege map of a packed service.
func Privileges(s Service) map[uint16]uint32 {
	switch svc := s.(type) {
	case *RTCService:
		return svc.privileges
	case *RTMService:
		return svc.privileges
	default:
		return nil
	}
}

// signBody derives the HMAC-SHA256 signature over the packed token body.
func signBody(appCert string, issueTs, salt uint32, body []byte) []byte {
	issueBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(issueBuf, issueTs)
	hIssue := hmac.New(sha256.New, issueBuf)
	hIssue.Write([]byte(appCert))

	saltBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(saltBuf, salt)
	hSalt := hmac.New(sha256.New, saltBuf)
	hSalt.Write(hIssue.Sum(nil))

	h := hmac.New(sha256.New, hSalt.Sum(nil))
	h.Write(body)
	return h.Sum(nil)
}

func isHexKey(s string) bool {
	if len(s) != 32 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func sortedServiceTypes(services map[uint16]Service) []uint16 {
	types := make([]uint16, 0, len(services))
	for t := range services {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func packUint16(buf *bytes.Buffer, v uint16) error {
	return binary.Write(buf, binary.LittleEndian, v)
}

func packUint32(buf *bytes.Buffer, v uint32) error {
	return binary.Write(buf, binary.LittleEndian, v)
}

func packString(buf *bytes.Buffer, s string) error {
	if err := packUint16(buf, uint16(len(s))); err != nil {
		return err
	}
	_, err := buf.WriteString(s)
	return err
}

func packPrivileges(buf *bytes.Buffer, privileges map[uint16]uint32) error {
	if err := packUint16(buf, uint16(len(privileges))); err != nil {
		return err
	}
	keys := make([]uint16, 0, len(privileges))
	for k := range privileges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if err := packUint16(buf, k); err != nil {
			return err
		}
		if err := packUint32(buf, privileges[k]); err != nil {
			return err
		}
	}
	return nil
}

func readUint16(r *bytes.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readString(r *bytes.Reader) ([]byte, error) {
	n, err := readUint16(r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func readPrivileges(r *bytes.Reader) (map[uint16]uint32, error) {
	n, err := readUint16(r)
	if err != nil {
		return nil, err
	}
	m := make(map[uint16]uint32, n)
	for i := uint16(0); i < n; i++ {
		k, err := readUint16(r)
		if err != nil {
			return nil, err
		}
		v, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}
