package checkout

import (
	"context"

	"github.com/sirupsen/logrus"
)

// compensation — отложенное действие, семантически отменяющее успешно выполненный шаг.
// Захватывает ровно те данные, которые нужны для отмены (id заказа, id резерва),
// а не весь результат шага.
type compensation struct {
	name     string
	execute  func(ctx context.Context) error
	executed bool
	err      error
}

type compensationList struct {
	items []*compensation
}

func newCompensationList() *compensationList {
	return &compensationList{}
}

func (l *compensationList) register(name string, fn func(ctx context.Context) error) {
	l.items = append(l.items, &compensation{name: name, execute: fn})
}

func (l *compensationList) len() int {
	return len(l.items)
}

// runReverse выполняет компенсации в обратном порядке регистрации (LIFO): побочные
// эффекты поздних шагов снимаются раньше ранних, иначе останутся висячие ссылки.
// Каждая компенсация выполняется не более одного раза; ошибка компенсации логируется
// и не прерывает выполнение остальных.
func (l *compensationList) runReverse(ctx context.Context, log *logrus.Entry) {
	for i := len(l.items) - 1; i >= 0; i-- {
		comp := l.items[i]
		if comp.executed {
			continue
		}
		comp.executed = true

		if err := comp.execute(ctx); err != nil {
			comp.err = err
			log.WithError(err).WithField("compensation", comp.name).Error("compensation failed")
			continue
		}
		log.WithField("compensation", comp.name).Info("compensation executed")
	}
}
