package model

type Category struct {
	ID          string  `json:"id" db:"id"`
	Slug        string  `json:"slug" db:"slug"`
	Name        string  `json:"name" db:"name"`
	PriceFactor float64 `json:"price_factor" db:"price_factor"`
}

type Condition struct {
	ID         string  `json:"id" db:"id"`
	Slug       string  `json:"slug" db:"slug"`
	Name       string  `json:"name" db:"name"`
	Multiplier float64 `json:"multiplier" db:"multiplier"`
}

type Location struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Region string `json:"region" db:"region"`
}
