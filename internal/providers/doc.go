// Package providers ships ready-made collaborator implementations:
// a fixture-backed catalog for flights, hotels, activities, locations
// and exchange rates, a scripted LLM for tests and demos, and an HTTP
// client for a local Ollama server.
package providers
