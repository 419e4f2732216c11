package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           forumd API
// @version         1.0
// @description     Secondary pages, articles, badges and search for a Q&A forum.
//
// @contact.name   forumd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
