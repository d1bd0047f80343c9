package utils_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/mandelsoft/eventcore/pkg/testutils"
	me "github.com/mandelsoft/eventcore/pkg/utils"
)

type name string

func (n name) String() string {
	return string(n)
}

var _ = Describe("utils", func() {
	Context("optional", func() {
		It("selects the first non-zero value", func() {
			Expect(me.Optional[string]()).To(Equal(""))
			Expect(me.Optional("", "a", "b")).To(Equal("a"))
			Expect(me.OptionalDefaulted("d")).To(Equal("d"))
			Expect(me.OptionalDefaulted("d", "", "")).To(Equal("d"))
			Expect(me.Optional[any](nil, 0)).To(Equal(0))
		})
	})

	Context("types", func() {
		It("determines interface types", func() {
			Expect(me.TypeOf[error]().Kind()).To(Equal(reflect.Interface))
			Expect(me.TypeOf[int]()).To(Equal(reflect.TypeOf(0)))
		})
	})

	Context("slices and maps", func() {
		It("sorts map keys", func() {
			m := map[name]int{"c": 1, "a": 2, "b": 3}
			Expect(me.MapKeys(m, me.CompareStringable[name])).To(Equal([]name{"a", "b", "c"}))
			Expect(me.MapKeys(map[string]int{})).To(BeEmpty())
		})

		It("joins stringables", func() {
			Expect(me.Join([]name{"a", "b"})).To(Equal("a, b"))
			Expect(me.Join([]name{"a", "b"}, "/")).To(Equal("a/b"))
		})

		It("filters", func() {
			list := []string{"a", "b", "a", "c"}
			Expect(me.FilterSlice(list, me.NotFilter(me.EqualsFilter("a")))).To(Equal([]string{"b", "c"}))
			Expect(me.FilterSlice(list, me.EqualsFilter("x"))).To(BeNil())
		})

		It("transforms", func() {
			Expect(me.TransformSlice([]string{"a", "b"}, strings.ToUpper)).To(Equal([]string{"A", "B"}))
		})
	})

	Context("hash", func() {
		It("is independent of field order", func() {
			a := Must(me.HashData(map[string]any{"a": 1, "b": "x"}))
			b := Must(me.HashData(json.RawMessage(`{"b":"x","a":1}`)))
			Expect(a).To(Equal(b))
			Expect(a).To(HaveLen(64))
			Expect(me.HashData(nil)).To(Equal(""))
		})

		It("hashes raw data", func() {
			Expect(me.HashData("abc")).To(Equal("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"))
		})
	})

	Context("timestamp", func() {
		It("keeps milliseconds", func() {
			t := time.Date(2024, 2, 1, 10, 11, 12, 345678901, time.UTC)
			ts := me.NewTimestampFor(t)
			data := Must(json.Marshal(ts))
			Expect(string(data)).To(Equal(`"2024-02-01T10:11:12.346Z"`))

			var r me.Timestamp
			MustBeSuccessful(json.Unmarshal(data, &r))
			Expect(r.Equal(ts)).To(BeTrue())
			Expect(r.Sub(me.NewTimestampFor(t.Add(-time.Second)))).To(Equal(time.Second))
		})
	})

	Context("atomic", func() {
		It("stores values", func() {
			var v me.AtomicValue[time.Duration]
			Expect(v.Load()).To(Equal(time.Duration(0)))
			v.Store(time.Second)
			Expect(v.Swap(time.Minute)).To(Equal(time.Second))
			Expect(v.Load()).To(Equal(time.Minute))
		})
	})
})
