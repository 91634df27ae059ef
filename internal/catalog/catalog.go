// Package catalog is the fixed list of party packages the shop sells.
package catalog

import (
	"errors"
	"slices"
	"time"

	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var ErrNotFound = errors.New("package not found")

// Currency every package is priced in.
var Currency = currency.BRL.String()

type Package struct {
	ID       string
	Title    string
	Price    domain.Money
	ImageURL string
}

// CartItem snapshots the package as it is added to the cart.
func (p Package) CartItem(now time.Time) domain.CartItem {
	return domain.CartItem{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price,
		ImageURL: p.ImageURL,
		AddedAt:  now.UTC(),
	}
}

func brl(amount string) domain.Money {
	return domain.Money{Amount: decimal.RequireFromString(amount), Currency: currency.BRL}
}

var packages = []Package{
	{ID: "1", Title: "Festa Unicórnio", Price: brl("100.00"), ImageURL: "images/festa-unicornio.png"},
	{ID: "2", Title: "Festa Super-Herói", Price: brl("120.00"), ImageURL: "images/festa-super-heroi.png"},
	{ID: "3", Title: "Festa Safari", Price: brl("110.00"), ImageURL: "images/festa-safari.png"},
	{ID: "4", Title: "Festa Princesa", Price: brl("115.00"), ImageURL: "images/festa-princesa.png"},
	{ID: "5", Title: "Festa Dinossauro", Price: brl("105.00"), ImageURL: "images/festa-dinossauro.png"},
	{ID: "6", Title: "Festa Circo", Price: brl("95.00"), ImageURL: "images/festa-circo.png"},
	{ID: "7", Title: "Festa Espaço", Price: brl("130.00"), ImageURL: "images/festa-espaco.png"},
	{ID: "8", Title: "Festa Praia", Price: brl("90.00"), ImageURL: "images/festa-praia.png"},
	{ID: "9", Title: "Festa Arco-Íris", Price: brl("99.90"), ImageURL: "images/festa-arco-iris.png"},
	{ID: "10", Title: "Festa Futebol", Price: brl("109.90"), ImageURL: "images/festa-futebol.png"},
	{ID: "11", Title: "Festa Pirata", Price: brl("119.90"), ImageURL: "images/festa-pirata.png"},
	{ID: "12", Title: "Festa Música", Price: brl("124.90"), ImageURL: "images/festa-musica.png"},
	{ID: "13", Title: "Festa Cinema", Price: brl("134.90"), ImageURL: "images/festa-cinema.png"},
	{ID: "14", Title: "Festa Aventura", Price: brl("129.90"), ImageURL: "images/festa-aventura.png"},
	{ID: "15", Title: "Festa Magia", Price: brl("139.90"), ImageURL: "images/festa-magia.png"},
	{ID: "16", Title: "Festa Animais", Price: brl("89.90"), ImageURL: "images/festa-animais.png"},
	{ID: "17", Title: "Festa Natal", Price: brl("149.90"), ImageURL: "images/festa-natal.png"},
	{ID: "18", Title: "Festa Halloween", Price: brl("144.90"), ImageURL: "images/festa-halloween.png"},
	{ID: "19", Title: "Festa Dia das Crianças", Price: brl("79.90"), ImageURL: "images/festa-dia-das-criancas.png"},
	{ID: "20", Title: "Festa Aniversário", Price: brl("84.90"), ImageURL: "images/festa-aniversario.png"},
}

// All returns the packages in display order.
func All() []Package {
	return slices.Clone(packages)
}

func Get(id string) (Package, error) {
	i := slices.IndexFunc(packages, func(p Package) bool { return p.ID == id })
	if i < 0 {
		return Package{}, ErrNotFound
	}
	return packages[i], nil
}
