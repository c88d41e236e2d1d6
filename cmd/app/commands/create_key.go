package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	cryptoDomain "github.com/allisson/provenance/internal/crypto/domain"
	cryptoService "github.com/allisson/provenance/internal/crypto/service"
)

// RunCreateKey generates a cryptographically secure 32-byte encryption key and
// prints it as environment variable configuration. Key material is zeroed from
// memory after encoding.
//
// Without KMS parameters the key is printed base64-encoded as-is. When both
// kmsProvider and kmsKeyURI are provided, the key is wrapped with KMS before
// output and the server unwraps it on startup.
//
// For local development, use kmsProvider="localsecrets" with
// kmsKeyURI="base64key://<32-byte-base64-key>". Never use localsecrets in
// production.
func RunCreateKey(algorithm, kmsProvider, kmsKeyURI string) error {
	ctx := context.Background()

	if _, err := cryptoDomain.ParseAlgorithm(algorithm); err != nil {
		return err
	}

	if (kmsProvider == "") != (kmsKeyURI == "") {
		return fmt.Errorf("--kms-provider and --kms-key-uri must be provided together")
	}

	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate encryption key: %w", err)
	}
	defer cryptoDomain.Zero(key)

	output := key
	if kmsProvider != "" {
		kmsService := cryptoService.NewKMSService()
		keeperInterface, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
		if err != nil {
			return fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer func() {
			if closeErr := keeperInterface.Close(); closeErr != nil {
				fmt.Printf("Warning: failed to close KMS keeper: %v\n", closeErr)
			}
		}()

		keeper, ok := keeperInterface.(interface {
			Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
		})
		if !ok {
			return fmt.Errorf("KMS keeper does not support encryption")
		}

		output, err = keeper.Encrypt(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to wrap encryption key with KMS: %w", err)
		}
	}

	encodedKey := base64.StdEncoding.EncodeToString(output)

	fmt.Println("# Encryption Key Configuration")
	fmt.Println("# Copy these environment variables to your .env file or secrets manager")
	fmt.Println()
	fmt.Printf("ENCRYPTION_KEY=\"%s\"\n", encodedKey)
	fmt.Printf("ENCRYPTION_ALGORITHM=\"%s\"\n", algorithm)
	if kmsProvider != "" {
		fmt.Printf("KMS_PROVIDER=\"%s\"\n", kmsProvider)
		fmt.Printf("KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	}

	return nil
}
