// Package model defines the database models.
//
//   - SecretVersion: append-only encrypted secret payloads with advisory
//     rotation timestamps
//
// Secret payloads are encrypted in BeforeCreate and decrypted in AfterFind
// using the cipher carried on the connection context; see pkg/db.
package model
