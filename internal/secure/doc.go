// Package secure keeps the run's bearer token out of plain process memory.
//
// The token obtained from the secrets service is moved into a memguard
// enclave right after the exchange and is only decrypted for the duration
// of the call that needs it:
//
//	holder := secure.HoldToken(string(token))
//	defer holder.Destroy()
//
//	err := holder.Use(func(token string) error {
//	    return client.ListSecrets(ctx, token, scope)
//	})
//
// The token is never written to disk. Memory locking depends on the
// platform; when mlock is unavailable memguard falls back to ordinary
// allocations and the enclave still encrypts the data at rest.
package secure
