// Package batchio decodes a submitted change batch from JSON into the
// rpsl.ChangeRequest/rpsl.Credentials values the validation core consumes,
// and encodes a batch's ValidatorResults back to JSON for the caller.
//
// This stands in for the external change parser assumed upstream
// of the core: it never re-parses RPSL text itself, it only wires an
// already-attribute-keyed submission onto the core's capability types.
package batchio

import (
	"encoding/json"
	"fmt"
	"net/netip"

	"github.com/go-playground/validator/v10"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
	"github.com/irrdcore/rpslvalidate/internal/validation"
)

var credentialsValidator = validator.New()

// ObjectDTO is the wire shape of one RPSL object within a submitted batch.
type ObjectDTO struct {
	Class      string              `json:"class"`
	PK         string              `json:"pk"`
	Source     string              `json:"source"`
	Attributes map[string][]string `json:"attributes"`
	Text       string              `json:"text"`
	// Auth holds the maintainer's raw auth: lines; only meaningful when
	// Class is "mntner".
	Auth []string `json:"auth,omitempty"`
}

// ChangeRequestDTO is one submitted mutation.
type ChangeRequestDTO struct {
	Type    string     `json:"type"`
	New     *ObjectDTO `json:"new"`
	Current *ObjectDTO `json:"current,omitempty"`
}

// InternalUserDTO mirrors rpsl.InternalUser.
type InternalUserDTO struct {
	Override              bool     `json:"override"`
	Mntners               []KeyDTO `json:"mntners,omitempty"`
	MntnersUserManagement []KeyDTO `json:"mntners_user_management,omitempty"`
}

// KeyDTO mirrors rpsl.MntnerKey.
type KeyDTO struct {
	PK     string `json:"pk"`
	Source string `json:"source"`
}

// CredentialsDTO mirrors rpsl.Credentials.
type CredentialsDTO struct {
	Passwords    []string         `json:"passwords,omitempty"`
	Overrides    []string         `json:"overrides,omitempty"`
	APIKeys      []string         `json:"api_keys,omitempty"`
	KeycertPK    string           `json:"keycert_pk,omitempty"`
	InternalUser *InternalUserDTO `json:"internal_user,omitempty"`
	Origin       string           `json:"origin,omitempty"`
	RemoteIP     string           `json:"remote_ip,omitempty"`
}

// BatchDTO is the whole decoded request: a submission batch plus its
// accompanying credentials.
type BatchDTO struct {
	Requests    []ChangeRequestDTO `json:"requests"`
	Credentials CredentialsDTO     `json:"credentials"`
}

// DecodeBatch parses raw JSON into ChangeRequests and Credentials ready for
// validation.BatchRunner.Run.
func DecodeBatch(raw []byte) ([]rpsl.ChangeRequest, rpsl.Credentials, error) {
	var dto BatchDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, rpsl.Credentials{}, fmt.Errorf("batchio: decode batch: %w", err)
	}

	requests := make([]rpsl.ChangeRequest, 0, len(dto.Requests))
	for i, r := range dto.Requests {
		reqType, err := decodeRequestType(r.Type)
		if err != nil {
			return nil, rpsl.Credentials{}, fmt.Errorf("batchio: request %d: %w", i, err)
		}
		if r.New == nil {
			return nil, rpsl.Credentials{}, fmt.Errorf("batchio: request %d: missing \"new\" object", i)
		}
		newObj, err := decodeObject(*r.New)
		if err != nil {
			return nil, rpsl.Credentials{}, fmt.Errorf("batchio: request %d: new: %w", i, err)
		}

		var current rpsl.Object
		if r.Current != nil {
			current, err = decodeObject(*r.Current)
			if err != nil {
				return nil, rpsl.Credentials{}, fmt.Errorf("batchio: request %d: current: %w", i, err)
			}
		}

		requests = append(requests, rpsl.ChangeRequest{Type: reqType, New: newObj, Current: current})
	}

	creds, err := decodeCredentials(dto.Credentials)
	if err != nil {
		return nil, rpsl.Credentials{}, err
	}
	if err := credentialsValidator.Struct(&creds); err != nil {
		return nil, rpsl.Credentials{}, fmt.Errorf("batchio: credentials: %w", err)
	}
	return requests, creds, nil
}

func decodeRequestType(s string) (rpsl.RequestType, error) {
	switch s {
	case "create":
		return rpsl.Create, nil
	case "modify":
		return rpsl.Modify, nil
	case "delete":
		return rpsl.Delete, nil
	default:
		return 0, fmt.Errorf("unknown request type %q", s)
	}
}

func decodeObject(dto ObjectDTO) (rpsl.Object, error) {
	class := rpsl.ObjectClass(dto.Class)
	base := rpsl.NewGenericObject(class, dto.PK, dto.Source, dto.Attributes, dto.Text)
	if rpsl.IsMntnerClass(class) {
		return rpsl.NewGenericMntner(base, dto.Auth), nil
	}
	return base, nil
}

func decodeCredentials(dto CredentialsDTO) (rpsl.Credentials, error) {
	creds := rpsl.Credentials{
		Passwords: dto.Passwords,
		Overrides: dto.Overrides,
		APIKeys:   dto.APIKeys,
		KeycertPK: dto.KeycertPK,
		Origin:    decodeOrigin(dto.Origin),
	}
	if dto.RemoteIP != "" {
		addr, err := netip.ParseAddr(dto.RemoteIP)
		if err != nil {
			return rpsl.Credentials{}, fmt.Errorf("batchio: invalid remote_ip %q: %w", dto.RemoteIP, err)
		}
		creds.RemoteIP = addr
	}
	if dto.InternalUser != nil {
		creds.InternalUser = &rpsl.InternalUser{
			Override:              dto.InternalUser.Override,
			Mntners:               keySet(dto.InternalUser.Mntners),
			MntnersUserManagement: keySet(dto.InternalUser.MntnersUserManagement),
		}
	}
	return creds, nil
}

func keySet(keys []KeyDTO) map[rpsl.MntnerKey]bool {
	if len(keys) == 0 {
		return nil
	}
	out := make(map[rpsl.MntnerKey]bool, len(keys))
	for _, k := range keys {
		out[rpsl.MntnerKey{PK: k.PK, Source: k.Source}] = true
	}
	return out
}

func decodeOrigin(s string) rpsl.Origin {
	switch s {
	case "web":
		return rpsl.OriginWeb
	case "email":
		return rpsl.OriginEmail
	case "api":
		return rpsl.OriginAPI
	default:
		return rpsl.OriginUnknown
	}
}

// ResultDTO is the wire shape of one ChangeRequest's outcome.
type ResultDTO struct {
	Class        string   `json:"class"`
	PK           string   `json:"pk"`
	RequestType  string   `json:"request_type"`
	Valid        bool     `json:"valid"`
	Errors       []string `json:"errors,omitempty"`
	Infos        []string `json:"infos,omitempty"`
	Notify       []KeyDTO `json:"notify,omitempty"`
	UsedOverride bool     `json:"used_override"`
}

// EncodeResults renders BatchRunner.Run's output as JSON.
func EncodeResults(results []validation.RequestResult) ([]byte, error) {
	dtos := make([]ResultDTO, 0, len(results))
	for _, rr := range results {
		notify := make([]KeyDTO, 0, len(rr.Result.Notify()))
		for _, m := range rr.Result.Notify() {
			notify = append(notify, KeyDTO{PK: m.PK(), Source: m.Source()})
		}
		dtos = append(dtos, ResultDTO{
			Class:        string(rr.Request.New.Class()),
			PK:           rr.Request.New.PK(),
			RequestType:  rr.Request.Type.String(),
			Valid:        rr.Result.IsValid(),
			Errors:       rr.Result.ErrorMessages(),
			Infos:        rr.Result.InfoMessages(),
			Notify:       notify,
			UsedOverride: rr.Result.UsedOverride(),
		})
	}
	return json.MarshalIndent(dtos, "", "  ")
}
