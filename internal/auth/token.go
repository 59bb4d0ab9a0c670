package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/sabbirzzaman/go-autocar-server/internal/model"
)

// AccessTokenLifetime はアクセストークンの有効期間。呼び出しごとに変更はできない。
const AccessTokenLifetime = 24 * time.Hour

const (
	claimExpiresAt = "exp"
	claimIssuedAt  = "iat"
)

// reservedClaims は発行側が設定するため、呼び出し元のクレームに含められないフィールド。
var reservedClaims = []string{claimExpiresAt, claimIssuedAt}

// Config はトークンの発行・検証の設定。
type Config struct {
	Secret string           // プロセス全体で共有する署名鍵
	Leeway time.Duration    // 有効期限判定で許容する時計のずれ
	Now    func() time.Time // nilの場合はtime.Now
}

func (c Config) clock() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}

// Issuer はIdentityをそのまま埋め込んだ署名付きアクセストークンを発行する。
// 資格情報（パスワード等）の照合は行わない。
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer はIssuerを生成する。署名鍵が空の場合はErrMissingSecretを返す。
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	return &Issuer{secret: []byte(cfg.Secret), now: cfg.clock()}, nil
}

// Issue はクレームを埋め込み、発行から1日で失効するHS256トークンを返す。
func (i *Issuer) Issue(claim model.Identity) (string, error) {
	if field, ok := ReservedClaim(claim); ok {
		return "", errors.Wrapf(ErrReservedClaim, "field:%v", field)
	}

	now := i.now()
	claims := make(jwt.MapClaims, len(claim)+len(reservedClaims))
	for k, v := range claim {
		claims[k] = v
	}
	claims[claimIssuedAt] = jwt.NewNumericDate(now)
	claims[claimExpiresAt] = jwt.NewNumericDate(now.Add(AccessTokenLifetime))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)

	return token, errors.Wrap(err, "failed to sign access token")
}

// ReservedClaim はクレームに含まれる予約フィールド名を返す。
func ReservedClaim(claim model.Identity) (string, bool) {
	for _, field := range reservedClaims {
		if _, ok := claim[field]; ok {
			return field, true
		}
	}
	return "", false
}

// Verifier はAuthorizationヘッダーのアクセストークンを検証し、埋め込まれたIdentityを復元する。
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier はVerifierを生成する。署名鍵が空の場合はErrMissingSecretを返す。
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	return &Verifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(cfg.Leeway),
			jwt.WithTimeFunc(cfg.clock()),
		),
	}, nil
}

// VerifyHeader はAuthorizationヘッダーの値を検証する。
//
// ヘッダーが空の場合はErrUnauthorizedを返す。
// それ以外は空白で区切った2番目の要素をトークンとして扱い（1番目の要素は検査しない）、
// 署名・有効期限の検証に失敗した場合はErrForbiddenを返す。
func (v *Verifier) VerifyHeader(header string) (model.Identity, error) {
	if header == "" {
		return nil, ErrUnauthorized
	}
	return v.Verify(TokenFromHeader(header))
}

// Verify はトークン文字列を検証し、発行時に埋め込まれたIdentityを返す。
// 失敗はすべてErrForbiddenとして返す。
func (v *Verifier) Verify(tokenString string) (model.Identity, error) {
	claims := jwt.MapClaims{}
	if _, err := v.parser.ParseWithClaims(tokenString, claims, v.keyFunc); err != nil {
		return nil, errors.Wrapf(ErrForbidden, "invalid access token: %v", err)
	}

	identity := make(model.Identity, len(claims))
	for k, val := range claims {
		identity[k] = val
	}
	for _, field := range reservedClaims {
		delete(identity, field)
	}

	return identity, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return v.secret, nil
}

// TokenFromHeader はAuthorizationヘッダーから単一スペース区切りの2番目の要素を取り出す。
// 2番目の要素がない場合は空文字列を返す。
func TokenFromHeader(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
