// Package docs provides generated OpenAPI documentation.
//
// Email Parser API
//
//	@title			Email Parser API
//	@version		1.0
//	@description	LLM-powered extraction of structured email records from pasted text.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/ShipCreekGroup/email-parser
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/email-parser/serve.go -o ./swagger --parseDependency --parseInternal
