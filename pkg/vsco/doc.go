// Package vsco enumerates and downloads the public images of a VSCO
// profile.
//
// A Loader fetches a user's gallery page, reads the session token and
// site cursor from the state document embedded in it, and follows the
// media listing until it is exhausted:
//
//	loader := vsco.NewLoader(vsco.NewClient(30*time.Second, log), log)
//	profile, err := loader.Profile(ctx, "someone")
//	if err != nil {
//		return err
//	}
//	if err := profile.LoadAll(ctx, 8); err != nil {
//		log.WithError(err).Warn("some images were not downloaded")
//	}
//
// Every Image holds its metadata plus a decoded payload that can be
// populated once. Errors carry a type from package errors so callers can
// tell a missing profile from a transport failure.
package vsco
