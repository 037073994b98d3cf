// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

// Package category reconciles free-text discount categories from different
// sources against a fixed set of canonical categories.
//
// Matching is case-insensitive substring matching in both directions, so a
// short synonym can match an unrelated word that happens to contain it.
package category

import (
	"slices"
	"strings"

	"github.com/tomtom215/centraldescuentos/internal/models"
)

// Other is the canonical key for categories no synonym recognizes.
const Other = "otro"

// synonyms maps each canonical key to the strings that identify it.
// Keys and synonyms are lowercase.
var synonyms = map[string][]string{
	"food":          {"food", "gastronomia", "gastronomía", "restaurante", "restaurantes", "comida", "comidas", "cafe", "café", "cafeteria", "cafetería", "delivery", "bar", "bares", "heladeria", "heladería", "pizzeria", "pizzería"},
	"fashion":       {"fashion", "moda", "ropa", "indumentaria", "calzado", "vestimenta", "accesorios", "zapatillas"},
	"travel":        {"travel", "viajes", "viaje", "turismo", "hoteles", "hotel", "vuelos", "aerolineas", "aerolíneas", "alojamiento"},
	"entertainment": {"entertainment", "entretenimiento", "cine", "cines", "teatro", "espectaculos", "espectáculos", "recitales", "streaming"},
	"supermarket":   {"supermarket", "supermercado", "supermercados", "almacen", "almacén", "grocery", "hipermercado"},
	"fuel":          {"fuel", "combustible", "combustibles", "nafta", "estacion de servicio", "estación de servicio", "ypf", "shell", "axion"},
	"health":        {"health", "salud", "farmacia", "farmacias", "perfumeria", "perfumería", "optica", "óptica", "bienestar"},
	"technology":    {"technology", "tecnologia", "tecnología", "electronica", "electrónica", "electro", "computacion", "computación", "celulares"},
	"home":          {"home", "hogar", "deco", "decoracion", "decoración", "muebles", "bazar", "jardin", "jardín"},
	"sports":        {"sports", "deportes", "deporte", "gimnasio", "gym", "fitness"},
	"education":     {"education", "educacion", "educación", "cursos", "libros", "libreria", "librería"},
	"beauty":        {"beauty", "belleza", "estetica", "estética", "peluqueria", "peluquería", "cosmetica", "cosmética"},
	"automotive":    {"automotive", "automotor", "autos", "taller", "neumaticos", "neumáticos", "lubricentro"},
	"kids":          {"kids", "infantil", "jugueteria", "juguetería", "juguetes", "niños", "ninos"},
}

// sortedKeys fixes the iteration order used by Canonical.
var sortedKeys = func() []string {
	keys := make([]string, 0, len(synonyms))
	for k := range synonyms {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}()

// Categories returns the canonical keys in lexical order.
func Categories() []string {
	return slices.Clone(sortedKeys)
}

// Synonyms returns the synonym list for target, or []string{target} when
// target is not a canonical key. The lookup ignores case.
func Synonyms(target string) []string {
	if list, ok := synonyms[strings.ToLower(target)]; ok {
		return slices.Clone(list)
	}
	return []string{target}
}

// MatchesCategory reports whether discountCategory belongs to targetCategory:
// ignoring case, it equals a synonym, contains one, or is contained in one.
// An empty discount category never matches.
func MatchesCategory(discountCategory, targetCategory string) bool {
	dc := strings.ToLower(discountCategory)
	if dc == "" {
		return false
	}
	for _, syn := range Synonyms(targetCategory) {
		s := strings.ToLower(syn)
		if dc == s || strings.Contains(dc, s) || strings.Contains(s, dc) {
			return true
		}
	}
	return false
}

// FilterDiscountsByCategory returns the discounts whose category matches,
// in their original order. The input slice is not modified.
func FilterDiscountsByCategory(discounts []models.Discount, category string) []models.Discount {
	out := make([]models.Discount, 0, len(discounts))
	for _, d := range discounts {
		if MatchesCategory(d.Category, category) {
			out = append(out, d)
		}
	}
	return out
}

// Canonical returns the first canonical key, in lexical order, that the
// free-text category matches, or Other.
func Canonical(freeText string) string {
	for _, key := range sortedKeys {
		if MatchesCategory(freeText, key) {
			return key
		}
	}
	return Other
}
