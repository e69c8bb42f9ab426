package object

// Clone performs the variant-specific deep copy spec.md §4.1 requires:
// Integer/String/Buffer/Package are cloned by value (a Package clone deep
// copies every element, recursively); References are cloned "by target
// identity" — the clone is a new Reference object pointing at the same
// Target, not a copy of the referent.
func Clone(o *Object) *Object {
	switch o.Kind() {
	case Uninitialized:
		return New()
	case KindInteger:
		v, _ := o.Integer()
		return NewInteger(v)
	case KindString:
		s, _ := o.String()
		return NewString(s)
	case KindBuffer:
		b, _ := o.Bytes()
		return NewBuffer(b)
	case KindPackage:
		elems, _ := o.Package()
		clones := make([]*Object, len(elems))
		for i, e := range elems {
			clones[i] = Clone(e)
		}
		return NewPackage(clones)
	case KindReference:
		r, _ := o.Reference()
		return &Object{kind: KindReference, refcount: 1, ref: &Reference{
			Kind: r.Kind, Target: r.Target,
		}}
	case KindFieldUnit:
		f, _ := o.FieldUnit()
		return NewFieldUnit(*f)
	case KindBufferField:
		b, _ := o.BufferField()
		return NewBufferField(*b)
	default:
		// Device/Processor/PowerResource/ThermalZone/OperationRegion/
		// Mutex/Event/Method/Debug: these are singleton-shaped namespace
		// objects with no by-value copy semantics in AML (CopyObject on
		// them replaces the node's pointer, it never duplicates state).
		// Returning the same retained object matches "clone shares
		// identity" for these kinds.
		return o.Retain()
	}
}

// CopyObject implements the CopyObject(expr, X) semantics of spec.md §4.4:
// expr is cloned to a fresh object, which replaces whatever dst currently
// targets. Unlike StoreInto, no implicit cast/truncation happens — the
// destination's type and size change to match src's.
func CopyObject(src *Object) *Object {
	return Clone(src)
}
