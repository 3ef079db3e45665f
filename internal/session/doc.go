// Package session resuelve, por request, quién llama y en qué organización.
//
// El flujo es un pipeline ordenado de tres etapas:
//
//	credential (decode → refresh?) → organización (match → switch?) → ruteo
//
// Cada etapa produce un resultado etiquetado (CredentialState, OrgState) y el
// Resolver devuelve un único Outcome con el Context, las mutaciones de cookies
// y la Decision. El resolver no toca http.ResponseWriter: el middleware aplica
// las mutaciones, lo que permite testearlo sin cookie jar real.
//
// El decode del access token lee claims sin verificar firma; el backend es el
// emisor de confianza y valida cada llamada que se le hace con ese token.
package session
