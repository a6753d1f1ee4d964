package devbackend

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seed добавляет элементы в коллекцию в обход проверки схемы.
// Идентификатор и даты проставляются, если не заданы.
func (s *Server) Seed(name string, items ...map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("неизвестная коллекция %q", name)
	}

	now := s.now().Format(time.RFC3339Nano)
	for _, src := range items {
		item := cloneItem(src)
		if id, _ := item["_id"].(string); id == "" {
			item["_id"] = uuid.NewString()
		}
		if _, ok := item["createdAt"]; !ok {
			item["createdAt"] = now
		}
		if _, ok := item["updatedAt"]; !ok {
			item["updatedAt"] = now
		}
		c.items = append(c.items, item)
	}
	return nil
}

// SeedDemo заполняет коллекции демонстрационным контентом.
func (s *Server) SeedDemo() error {
	demo := map[string][]map[string]any{
		"slides": {
			{"title": "Чистая энергия рек", "subtitle": "Гидроэнергетика для регионов", "buttonText": "О проектах", "buttonLink": "/projects", "order": float64(1)},
			{"title": "Надёжная инфраструктура", "subtitle": "Проектирование и эксплуатация ГЭС", "buttonText": "Услуги", "buttonLink": "/services", "order": float64(2)},
		},
		"faqs": {
			{"question": "Как подключиться к сети?", "answer": "Подайте заявку через доску объявлений.", "category": "Подключение", "order": float64(1)},
			{"question": "Где найти отчёты?", "answer": "В разделе проектов.", "category": "Общие", "order": float64(2)},
		},
		"projects": {
			{"title": "Изыскания", "description": "Гидрологические и геологические изыскания створа.", "status": "completed", "progress": float64(100), "startDate": "2023-03-01", "endDate": "2023-12-15"},
			{"title": "Строительство плотины", "description": "Возведение бетонной плотины и водосброса.", "status": "in-progress", "progress": float64(45), "startDate": "2024-02-01"},
		},
		"marquee": {
			{"text": "Плановое обслуживание турбины №2 с 10 по 14 число", "active": true},
		},
		"popups": {
			{"title": "День открытых дверей", "content": "Приглашаем на экскурсию по станции.", "active": true},
		},
	}

	for _, name := range []string{"slides", "faqs", "projects", "marquee", "popups"} {
		if err := s.Seed(name, demo[name]...); err != nil {
			return err
		}
	}
	return nil
}
