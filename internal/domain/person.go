package domain

// Person — зарегистрированный человек (клиент), которого ищем на фото.
type Person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PersonImage — эталонное фото персоны, хранящееся в S3.
type PersonImage struct {
	ID       int64
	PersonID int64
	ImageKey string
}

func NewPerson(id int64, name string) *Person {
	return &Person{ID: id, Name: name}
}
