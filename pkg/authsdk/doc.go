/*
Package authsdk is a Go client for the Fitra authentication service.

# Overview

The service keeps browser sessions in a cookie. SDKClient carries a cookie
jar, so a client behaves like a browser: after Signup or Login every
following request is made as that user until Logout.

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Create an account; the new user is signed in straight away.
	created, err := client.Signup(ctx, authsdk.SignupRequest{
		Email:    "a@b.com",
		Password: "secret1",
		Name:     "A B",
	})

	// Or sign in to an existing one.
	session, err := client.Login(ctx, "a@b.com", "secret1")

	// Who am I? An anonymous client gets a SessionResponse with a nil User.
	current, err := client.Session(ctx)

	// Sign out. The token stops working on the server too.
	err = client.Logout(ctx)

# Bearer tokens

Non-browser callers that hold the raw session token can send it as an
Authorization header instead of a cookie:

	client.SetBearerToken(token)
	me, err := client.Me(ctx)

SessionToken returns the token currently held in the jar, which is handy
for handing a session from one process to another.

# Errors

Every non-2xx response is returned as an *APIError carrying the status
code and the server's message:

	_, err := client.Login(ctx, "a@b.com", "wrong")
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		// invalid credentials
	}

IsStatus is a shorthand for the same check.

# Thread Safety

SDKClient is safe for concurrent use, but all goroutines share one cookie
jar and therefore one signed-in user.
*/
package authsdk
