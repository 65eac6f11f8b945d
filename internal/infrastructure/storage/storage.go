// Package storage define el sustrato clave/valor sobre el que viven los datos de la tienda.
//
// Hay dos alcances: el compartido, visible para todas las pestañas del mismo origen
// (usuarios, productos, pedidos, categorías) y el privado de cada pestaña (token de sesión,
// usuario actual, carrito). El compartido avisa a las demás pestañas cuando una clave cambia;
// la pestaña que escribe no recibe su propio aviso.
package storage

import "context"

// Storage operaciones básicas de lectura y escritura por clave.
type Storage interface {
	// GetItem devuelve el valor y ok=false si la clave no existe.
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Batcher escribe varias claves como una sola operación.
type Batcher interface {
	SetItems(ctx context.Context, items map[string]string) error
}

// Event aviso de que Key cambió en la pestaña Origin.
type Event struct {
	Key    string
	Origin string
}

// Watcher entrega los cambios hechos por otras pestañas.
type Watcher interface {
	// Watch registra fn y devuelve la función para cancelar el registro.
	// fn puede ejecutarse en otra goroutine; no debe bloquear.
	Watch(fn func(Event)) (cancel func())
}

// Shared handle de una pestaña sobre el almacenamiento compartido.
type Shared interface {
	Storage
	Batcher
	Watcher
	Origin() string
}

// Hub fuente de handles compartidos, uno por pestaña.
type Hub interface {
	Tab(origin string) Shared
}
