/*
Package token verifies JWTs (JSON Web Tokens) against signing keys resolved through
a jwks.Provider, using github.com/golang-jwt/jwt/v5 for parsing and signatures.

Basic usage:
```

	verifier, err := token.NewVerifier(token.Config{
	    Provider: provider,
	    Issuer:   "https://issuer.example.com",
	})
	if err != nil {
	    log.Fatal(err)
	}

	verified, err := verifier.Verify(ctx, raw)

```
The package supports custom claims through struct embedding:
```

	type CustomClaims struct {
	    jwt.RegisteredClaims
	    UserID string   `json:"user_id"`
	    Roles  []string `json:"roles"`
	}

	var claims CustomClaims
	verified, err := verifier.VerifyWithClaims(ctx, raw, &claims)

```
Callers that drive golang-jwt themselves can use Keyfunc:
```
parsed, err := jwt.Parse(raw, token.Keyfunc(ctx, provider))
```
HTTP handlers can be protected with Middleware; the verified token is available
through FromContext.
*/
package token
