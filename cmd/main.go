// cmd/main.go
package main

import (
	"go-trustbank/app"
)

// @title           TrustBank API
// @version         1.0
// @description     Banking API with atomic money movement and mobile number verification.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
