// Package authsdk is the typed client for the agency auth service.
//
// It covers the full device-authorization flow plus refresh and revocation,
// and it is also where the wire types and OAuth2 error vocabulary live, so
// the server handlers and external consumers share one definition of the
// protocol.
//
// # Device flow
//
//	client := authsdk.NewClient("https://auth.example.com")
//
//	start, err := client.StartDeviceFlow(ctx, "cli-tool", []string{"read"})
//	if err != nil {
//		return err
//	}
//	fmt.Printf("Visit %s and enter code %s\n", start.VerificationURI, start.UserCode)
//
//	token, err := client.WaitForToken(ctx, "cli-tool", start)
//	if err != nil {
//		return err // denied, expired, or ctx cancelled
//	}
//
// WaitForToken polls at the interval the server suggested, backs off when the
// server answers slow_down, and returns as soon as the flow reaches a
// terminal state.
//
// # Refresh and revocation
//
//	token, err = client.RefreshGrant(ctx, "cli-tool", token.RefreshToken)
//	err = client.Revoke(ctx, "cli-tool", token.AccessToken)
//
// # Errors
//
// Failed requests return *OAuth2Error carrying the RFC 6749 error code and
// HTTP status. Compare codes with errors.As:
//
//	var oe *authsdk.OAuth2Error
//	if errors.As(err, &oe) && oe.Code == authsdk.ErrorCodeAccessDenied {
//		// user said no
//	}
package authsdk
