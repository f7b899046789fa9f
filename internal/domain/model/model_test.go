package model_test

import (
	"testing"

	model "github.com/okian/fingering/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPerformanceSorted(t *testing.T) {
	convey.Convey("Given a performance with unordered events", t, func() {
		perf := model.Performance{Events: []model.NoteEvent{
			{NoteNumber: 40, StartTime: 1.0},
			{NoteNumber: 38, StartTime: 0.5},
			{NoteNumber: 36, StartTime: 0.5},
			{NoteNumber: 41, StartTime: 0},
		}}

		convey.Convey("When sorting", func() {
			sorted := perf.Sorted()

			convey.Convey("Then events are ordered by start time, stable for ties", func() {
				convey.So(sorted, convey.ShouldHaveLength, 4)
				convey.So(sorted[0].NoteNumber, convey.ShouldEqual, 41)
				convey.So(sorted[1].NoteNumber, convey.ShouldEqual, 38)
				convey.So(sorted[2].NoteNumber, convey.ShouldEqual, 36)
				convey.So(sorted[3].NoteNumber, convey.ShouldEqual, 40)
			})

			convey.Convey("And the original slice is untouched", func() {
				convey.So(perf.Events[0].NoteNumber, convey.ShouldEqual, 40)
			})
		})
	})
}

func TestHandAndFinger(t *testing.T) {
	convey.Convey("Given hand and finger identifiers", t, func() {
		convey.Convey("Then names render in lowercase", func() {
			convey.So(model.Left.String(), convey.ShouldEqual, "left")
			convey.So(model.Right.String(), convey.ShouldEqual, "right")
			convey.So(model.Pinky.String(), convey.ShouldEqual, "pinky")
			convey.So(model.Assignment{Hand: model.Left, Finger: model.Index}.Key(), convey.ShouldEqual, "left-index")
		})

		convey.Convey("Then the other hand is the mirror", func() {
			convey.So(model.Left.Other(), convey.ShouldEqual, model.Right)
			convey.So(model.Right.Other(), convey.ShouldEqual, model.Left)
		})

		convey.Convey("When parsing names", func() {
			h, err := model.ParseHand(" R ")
			convey.So(err, convey.ShouldBeNil)
			convey.So(h, convey.ShouldEqual, model.Right)

			f, err := model.ParseFinger("Ring")
			convey.So(err, convey.ShouldBeNil)
			convey.So(f, convey.ShouldEqual, model.Ring)

			_, err = model.ParseFinger("toe")
			convey.So(err, convey.ShouldNotBeNil)
			_, err = model.ParseHand("both")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
