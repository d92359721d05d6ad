package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// RunCreateKeeperKey generates a cryptographically secure 32-byte key and prints
// it as a local base64key:// keeper URI. The keeper encrypts signing key material
// at rest; the service refuses to start without KEEPER_URI set. Key material is
// zeroed from memory after encoding.
//
// Security: Never use the base64key:// keeper in production. Use a cloud KMS
// keeper (gcpkms, awskms, azurekeyvault, hashivault) so the key never leaves
// the provider.
func RunCreateKeeperKey(writer io.Writer) error {
	// Generate a cryptographically secure 32-byte key
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate keeper key: %w", err)
	}

	// The base64key scheme expects URL-safe base64
	encodedKey := base64.URLEncoding.EncodeToString(key)

	_, _ = fmt.Fprintln(writer, "# Keeper Key Configuration (local development)")
	_, _ = fmt.Fprintln(writer, "# Copy this environment variable to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KEEPER_URI=\"base64key://%s\"\n", encodedKey)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "# Never use base64key:// in production. Use a cloud KMS keeper instead:")
	_, _ = fmt.Fprintln(writer, "#   KEEPER_URI=\"gcpkms://projects/MYPROJECT/locations/MYLOCATION/keyRings/MYKEYRING/cryptoKeys/MYKEY\"")
	_, _ = fmt.Fprintln(writer, "#   KEEPER_URI=\"awskms://alias/MYKEY?region=MYREGION\"")
	_, _ = fmt.Fprintln(writer, "#   KEEPER_URI=\"azurekeyvault://MYKEYVAULTNAME.vault.azure.net/keys/MYKEY\"")
	_, _ = fmt.Fprintln(writer, "#   KEEPER_URI=\"hashivault://MYKEY\"")

	// Zero out the key from memory for security
	for i := range key {
		key[i] = 0
	}

	return nil
}
