// Package docs provides generated OpenAPI documentation.
//
// Folio API
//
//	@title			Folio API
//	@version		1.0
//	@description	Page loading and frame composition for a comic and image book viewer.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/folio
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8484
//	@BasePath	/
//
//	@schemes	http
package docs

//go:generate swag init -g ../cmd/folio/serve.go -o . --outputTypes go --parseInternal
