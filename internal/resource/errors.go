package resource

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownItem — элемента с таким идентификатором нет в текущем списке.
	ErrUnknownItem = errors.New("элемент не найден в списке")
	// ErrUnknownField — у ресурса нет такого редактируемого поля.
	ErrUnknownField = errors.New("неизвестное поле")
	// ErrCancelled — пользователь не подтвердил удаление.
	ErrCancelled = errors.New("операция отменена пользователем")
)

// ReconcileError — мутация на сервере выполнена, но перезагрузить список
// не удалось. Список остаётся устаревшим до следующего обновления.
type ReconcileError struct {
	// Operation — выполненная мутация (create, update, delete)
	Operation string
	// ItemID — идентификатор изменённого элемента (может быть пуст для create)
	ItemID string
	Err    error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("%s выполнен, но список не обновлён: %v", e.Operation, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}
