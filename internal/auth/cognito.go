package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotConfirmed   = errors.New("account is not confirmed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCode        = errors.New("invalid confirmation code")
)

// Identity is the provider-verified user the rest of the system works with.
type Identity struct {
	UserID      string
	Email       string
	Name        string
	Groups      []string
	AccessToken string
}

// Role maps the identity's provider groups to a service role.
func (i Identity) Role(adminGroup string) string {
	for _, g := range i.Groups {
		if g == adminGroup {
			return RoleAdmin
		}
	}
	return RoleCustomer
}

// IdentityProvider is the managed user directory: it owns credentials,
// confirmation codes and password resets. The service never stores passwords.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, name string) error
	ConfirmSignUp(ctx context.Context, email, code string) error
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
	SignOut(ctx context.Context, accessToken string) error
}

// CognitoProvider implements IdentityProvider against a Cognito user pool.
type CognitoProvider struct {
	client       *cognito.Client
	clientID     string
	clientSecret string
}

func NewCognitoProvider(client *cognito.Client, clientID, clientSecret string) *CognitoProvider {
	return &CognitoProvider{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// secretHash computes the HMAC the user pool expects when the app client has
// a secret configured.
func (p *CognitoProvider) secretHash(username string) string {
	if p.clientSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(p.clientSecret))
	mac.Write([]byte(username + p.clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (p *CognitoProvider) SignUp(ctx context.Context, email, password, name string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	input := &cognito.SignUpInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(name)},
		},
	}
	if hash := p.secretHash(email); hash != "" {
		input.SecretHash = aws.String(hash)
	}

	if _, err := p.client.SignUp(ctx, input); err != nil {
		var exists *types.UsernameExistsException
		if errors.As(err, &exists) {
			return ErrEmailTaken
		}
		var policy *types.InvalidPasswordException
		if errors.As(err, &policy) {
			return ErrPasswordPolicy
		}
		return fmt.Errorf("sign up: %w", err)
	}
	return nil
}

func (p *CognitoProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	input := &cognito.ConfirmSignUpInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	}
	if hash := p.secretHash(email); hash != "" {
		input.SecretHash = aws.String(hash)
	}

	if _, err := p.client.ConfirmSignUp(ctx, input); err != nil {
		var mismatch *types.CodeMismatchException
		if errors.As(err, &mismatch) {
			return ErrInvalidCode
		}
		var expired *types.ExpiredCodeException
		if errors.As(err, &expired) {
			return ErrInvalidCode
		}
		return fmt.Errorf("confirm sign up: %w", err)
	}
	return nil
}

func (p *CognitoProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	params := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}
	if hash := p.secretHash(email); hash != "" {
		params["SECRET_HASH"] = hash
	}

	out, err := p.client.InitiateAuth(ctx, &cognito.InitiateAuthInput{
		ClientId:       aws.String(p.clientID),
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: params,
	})
	if err != nil {
		var notAuth *types.NotAuthorizedException
		if errors.As(err, &notAuth) {
			return nil, ErrInvalidCredentials
		}
		var notFound *types.UserNotFoundException
		if errors.As(err, &notFound) {
			return nil, ErrInvalidCredentials
		}
		var unconfirmed *types.UserNotConfirmedException
		if errors.As(err, &unconfirmed) {
			return nil, ErrUserNotConfirmed
		}
		return nil, fmt.Errorf("initiate auth: %w", err)
	}
	if out.AuthenticationResult == nil || out.AuthenticationResult.IdToken == nil {
		return nil, fmt.Errorf("initiate auth: no authentication result (challenge %s)", out.ChallengeName)
	}

	identity, err := identityFromIDToken(*out.AuthenticationResult.IdToken)
	if err != nil {
		return nil, err
	}
	if out.AuthenticationResult.AccessToken != nil {
		identity.AccessToken = *out.AuthenticationResult.AccessToken
	}
	return identity, nil
}

func (p *CognitoProvider) ForgotPassword(ctx context.Context, email string) error {
	input := &cognito.ForgotPasswordInput{
		ClientId: aws.String(p.clientID),
		Username: aws.String(email),
	}
	if hash := p.secretHash(email); hash != "" {
		input.SecretHash = aws.String(hash)
	}

	if _, err := p.client.ForgotPassword(ctx, input); err != nil {
		// Do not reveal whether the account exists.
		var notFound *types.UserNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

func (p *CognitoProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	input := &cognito.ConfirmForgotPasswordInput{
		ClientId:         aws.String(p.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
	}
	if hash := p.secretHash(email); hash != "" {
		input.SecretHash = aws.String(hash)
	}

	if _, err := p.client.ConfirmForgotPassword(ctx, input); err != nil {
		var mismatch *types.CodeMismatchException
		if errors.As(err, &mismatch) {
			return ErrInvalidCode
		}
		return fmt.Errorf("confirm forgot password: %w", err)
	}
	return nil
}

func (p *CognitoProvider) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if _, err := p.client.GlobalSignOut(ctx, &cognito.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	}); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// identityFromIDToken extracts the user attributes from the provider-issued
// ID token. The token arrived directly from the provider over TLS in exchange
// for the password, so its signature is not re-verified here.
func identityFromIDToken(idToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("parse id token: %w", err)
	}

	identity := &Identity{}
	if sub, ok := claims["sub"].(string); ok {
		identity.UserID = sub
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	if rawGroups, ok := claims["cognito:groups"].([]interface{}); ok {
		for _, g := range rawGroups {
			if s, ok := g.(string); ok {
				identity.Groups = append(identity.Groups, s)
			}
		}
	}
	if identity.UserID == "" {
		return nil, errors.New("id token missing subject")
	}
	return identity, nil
}
