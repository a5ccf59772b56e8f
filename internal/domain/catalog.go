package domain

import "fmt"

// DefaultProductImageURL подставляется, если у товара не задано изображение.
const DefaultProductImageURL = "https://placehold.co/400x300/cccccc/333333?text=Smart+Arena"

// Product описывает товар витрины.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
}

// Announcement — объявление (акция, новость) на главной странице.
type Announcement struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	FileURL string `json:"file_url,omitempty"`
}

// Catalog — содержимое слота product.json.
type Catalog struct {
	Products []Product      `json:"products"`
	Posts    []Announcement `json:"posts"`
	// LastIDs хранит наибольшие когда-либо выданные идентификаторы, чтобы удаление
	// записи с максимальным id не приводило к его повторной выдаче.
	LastIDs IDWatermarks `json:"last_ids,omitzero"`
}

// IDWatermarks — верхние отметки пространств идентификаторов каталога.
type IDWatermarks struct {
	Products int64 `json:"products"`
	Posts    int64 `json:"posts"`
}

// EmptyCatalog возвращает каталог с обоими ключами и пустыми списками.
func EmptyCatalog() Catalog {
	return Catalog{Products: []Product{}, Posts: []Announcement{}}
}

// Normalize заменяет nil-списки пустыми, чтобы оба ключа всегда сериализовались как [].
func (c *Catalog) Normalize() {
	if c.Products == nil {
		c.Products = []Product{}
	}
	if c.Posts == nil {
		c.Posts = []Announcement{}
	}
}

// AllocateProductID выдаёт следующий id товара и сдвигает отметку.
func (c *Catalog) AllocateProductID() (int64, error) {
	id, err := nextAfter(max(MaxID(c.Products, ProductID), c.LastIDs.Products))
	if err != nil {
		return 0, fmt.Errorf("allocate product id: %w", err)
	}
	c.LastIDs.Products = id
	return id, nil
}

// AllocateAnnouncementID выдаёт следующий id объявления и сдвигает отметку.
func (c *Catalog) AllocateAnnouncementID() (int64, error) {
	id, err := nextAfter(max(MaxID(c.Posts, AnnouncementID), c.LastIDs.Posts))
	if err != nil {
		return 0, fmt.Errorf("allocate announcement id: %w", err)
	}
	c.LastIDs.Posts = id
	return id, nil
}

// RememberIDs фиксирует текущие максимумы перед удалением записей.
// Нужна для документов, записанных без last_ids.
func (c *Catalog) RememberIDs() {
	c.LastIDs.Products = max(c.LastIDs.Products, MaxID(c.Products, ProductID))
	c.LastIDs.Posts = max(c.LastIDs.Posts, MaxID(c.Posts, AnnouncementID))
}

// FindProduct ищет товар линейным проходом.
func (c Catalog) FindProduct(id int64) (Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// ProductInput — поля формы создания товара в том виде, в каком они пришли от клиента.
type ProductInput struct {
	Name        string
	Price       string
	Category    string
	Description string
	ImageURL    string
}

// AnnouncementInput — поля формы создания объявления.
type AnnouncementInput struct {
	Title   string
	Content string
	FileURL string
}
