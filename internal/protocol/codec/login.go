package codec

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

const (
	BaseAppID      = "22"
	AppName        = "FishbowlGo"
	AppDescription = "Connection for Go client"
)

// Identity is the integrated-application identity presented at login.
type Identity struct {
	ID          string
	Name        string
	Description string
}

// AppIdentity derives the login identity. A task name is appended to the
// name and description and perturbs the id so concurrently running named
// clients register as distinct applications.
func AppIdentity(taskName string) Identity {
	id := Identity{ID: BaseAppID, Name: AppName, Description: AppDescription}
	if taskName == "" {
		return id
	}
	id.Name = fmt.Sprintf("%s (%s)", AppName, taskName)
	id.Description = fmt.Sprintf("%s (%s task)", AppDescription, taskName)
	sum := sha1.Sum([]byte(taskName))
	n := int64(int32(binary.LittleEndian.Uint32(sum[:4]))) % 100000
	if n < 0 {
		n += 100000
	}
	id.ID = fmt.Sprintf("%s%05d", BaseAppID, n)
	return id
}

// HashPassword returns base64(md5(password)). The server never sees the
// plaintext password.
func HashPassword(password string) string {
	raw, err := charmap.ISO8859_1.NewEncoder().String(password)
	if err != nil {
		raw = password
	}
	sum := md5.Sum([]byte(raw))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// LoginRequest builds the unkeyed login document. password must already be
// hashed with HashPassword.
func LoginRequest(username, hashedPassword, taskName string) *Request {
	id := AppIdentity(taskName)
	return NewRequest("").Add("LoginRq", Fields{
		{Name: "IAID", Value: id.ID},
		{Name: "IAName", Value: id.Name},
		{Name: "IADescription", Value: id.Description},
		{Name: "UserName", Value: username},
		{Name: "UserPassword", Value: hashedPassword},
	})
}

func LogoutRequest(key string) *Request {
	return NewRequest(key).Add("LogoutRq", nil)
}
