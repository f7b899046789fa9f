package service

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/fingering/internal/adapters/mq/queue"
	"github.com/okian/fingering/internal/adapters/repository"
	"github.com/okian/fingering/internal/domain/model"
	"github.com/okian/fingering/pkg/logger"
)

func TestSubmitRollback(t *testing.T) {
	Convey("Given a started service whose queue no longer accepts jobs", t, func() {
		ctx := context.Background()
		s := New(WithWorkerCount(1), WithLogger(logger.Discard()))
		So(s.Start(ctx), ShouldBeNil)
		Reset(func() { So(s.Stop(ctx), ShouldBeNil) })
		So(s.queue.Close(), ShouldBeNil)

		Convey("When a job is submitted", func() {
			_, err := s.Submit(ctx, model.Job{ID: "late", Performance: model.Performance{}})

			Convey("Then the error surfaces and the record is rolled back", func() {
				So(errors.Is(err, queue.ErrQueueClosed), ShouldBeTrue)
				_, gerr := s.Job(ctx, "late")
				So(errors.Is(gerr, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
