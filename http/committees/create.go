package committees

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/valyala/fasthttp"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/codes"
	"github.com/sib-utrecht/portal/http/input"
	"github.com/sib-utrecht/portal/http/response"
	"github.com/sib-utrecht/portal/storage"
	"github.com/sib-utrecht/portal/storage/data"
	"github.com/sib-utrecht/portal/totp"
)

var (
	nameRule    = input.StringRule{Required: true, Min: 1, Max: 100}
	accountRule = input.StringRule{Min: 1, Max: 100}
	membersRule = input.ArrayRule{
		Max:  500,
		Item: input.StringRule{Required: true, Min: 1, Max: 100},
	}

	resAdminRequired = response.StaticError(403, codes.RES_ADMIN_REQUIRED, "unauthorized: admin access required")
)

func Create(conn *fasthttp.RequestCtx, env *portal.Env) (response.Response, error) {
	if !env.Admin {
		return resAdminRequired, nil
	}

	body, ok := input.Parse(conn.PostBody())
	if !ok {
		return response.InvalidJSON, nil
	}

	validator := &input.Validator{}
	name := validator.String(body, "name", nameRule)
	account := validator.String(body, "account", accountRule)
	members := validator.StringArray(body, "members", membersRule)
	if !validator.IsValid() {
		return validator.Response(), nil
	}

	if account == "" {
		account = name
	}

	config := portal.Config.TOTP
	secretLength := config.SecretLength
	if secretLength == 0 {
		secretLength = 32
	}
	issuer := config.Issuer
	if issuer == "" {
		issuer = "Member Portal"
	}

	secret := totp.RandomSecret(secretLength)
	url, err := totp.ProvisioningURI(secret, account, issuer)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}

	committee, err := storage.DB.CreateCommittee(conn, data.CreateCommittee{
		Name:    name,
		Members: members,
		Secret:  secret,
	})
	if err != nil {
		return nil, fmt.Errorf("committees create - %w", err)
	}

	env.Info("committee_created").Str("id", committee.Id).Int("members", len(committee.Members)).Msg("")

	return response.Ok(struct {
		committeeResponse
		Secret string `json:"secret"`
		QR     string `json:"qr"`
	}{
		committeeResponse: toResponse(committee),
		Secret:            secret,
		QR:                base64.RawStdEncoding.EncodeToString(png),
	}), nil
}
