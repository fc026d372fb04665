// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer stays free of ORM tags;
// each model converts to and from its aggregate with ToDomain and FromDomain.
package models
