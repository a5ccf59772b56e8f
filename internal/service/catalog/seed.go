package catalog

import "github.com/vladislavdragonenkov/storefront/internal/domain"

// DemoCatalog — стартовое наполнение витрины для пустой установки.
func DemoCatalog() domain.Catalog {
	return domain.Catalog{
		Products: []domain.Product{
			{
				ID:          1,
				Name:        "Laptop DELL Vostro",
				Price:       1200000,
				Category:    "Laptops",
				Description: "Laptop yenye kasi kubwa na RAM 16GB.",
				ImageURL:    "https://placehold.co/400x300/3c0b0b/FFFFFF?text=DELL+Vostro",
			},
			{
				ID:          2,
				Name:        "Simu Samsung A54",
				Price:       750000,
				Category:    "Simu",
				Description: "Simu mpya yenye kamera kali na betri yenye nguvu.",
				ImageURL:    "https://placehold.co/400x300/083d1c/FFFFFF?text=SAMSUNG+A54",
			},
		},
		Posts: []domain.Announcement{
			{
				ID:      1,
				Title:   "Punguzo la 20% kwa Laptops zote!",
				Content: "Ofa hii ni kwa wiki moja tu. Usikose!",
				FileURL: "https://placehold.co/600x200/520138/FFFFFF?text=OFA+KUBWA!",
			},
		},
	}
}
