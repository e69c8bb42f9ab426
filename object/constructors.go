package object

// NewOpRegion returns a new OperationRegion object.
func NewOpRegion(space RegionSpace, offset, length uint64) *Object {
	return &Object{kind: KindOperationRegion, refcount: 1, region: &OpRegion{
		Space: space, Offset: offset, Length: length,
	}}
}

// OpRegion returns the region payload, if the object holds one.
func (o *Object) OpRegion() (*OpRegion, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindOperationRegion {
		return nil, false
	}
	return o.region, true
}

// NewFieldUnit returns a new FieldUnit object bound to region.
func NewFieldUnit(f FieldUnit) *Object {
	f.Region.Retain()
	cp := f
	return &Object{kind: KindFieldUnit, refcount: 1, field: &cp}
}

// FieldUnit returns the field payload, if the object holds one.
func (o *Object) FieldUnit() (*FieldUnit, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindFieldUnit {
		return nil, false
	}
	return o.field, true
}

// NewBufferField returns a new BufferField object bound to buf.
func NewBufferField(b BufferField) *Object {
	b.Buffer.Retain()
	cp := b
	return &Object{kind: KindBufferField, refcount: 1, bufField: &cp}
}

// BufferField returns the buffer-field payload, if the object holds one.
func (o *Object) BufferField() (*BufferField, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindBufferField {
		return nil, false
	}
	return o.bufField, true
}

// NewDevice returns a new Device object.
func NewDevice() *Object {
	return &Object{kind: KindDevice, refcount: 1, device: &DeviceData{}}
}

// NewProcessor returns a new Processor object.
func NewProcessor(id uint8, pblkAddr uint32, pblkLen uint8) *Object {
	return &Object{kind: KindProcessor, refcount: 1, proc: &ProcessorData{
		ProcID: id, PblkAddr: pblkAddr, PblkLen: pblkLen,
	}}
}

// Processor returns the processor payload, if the object holds one.
func (o *Object) Processor() (*ProcessorData, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindProcessor {
		return nil, false
	}
	return o.proc, true
}

// NewPowerResource returns a new PowerResource object.
func NewPowerResource(level uint8, order uint16) *Object {
	return &Object{kind: KindPowerResource, refcount: 1, pwr: &PowerResourceData{
		SystemLevel: level, ResourceOrd: order,
	}}
}

// PowerResource returns the power-resource payload, if the object holds one.
func (o *Object) PowerResource() (*PowerResourceData, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindPowerResource {
		return nil, false
	}
	return o.pwr, true
}

// NewThermalZone returns a new ThermalZone object.
func NewThermalZone() *Object {
	return &Object{kind: KindThermalZone, refcount: 1, thermal: &ThermalZoneData{}}
}

// NewMutex returns a new Mutex object with the given AML sync level.
func NewMutex(syncLevel uint8) *Object {
	return &Object{kind: KindMutex, refcount: 1, mutex: newMutexData(syncLevel)}
}

// Mutex returns the mutex payload, if the object holds one.
func (o *Object) Mutex() (*MutexData, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindMutex {
		return nil, false
	}
	return o.mutex, true
}

// NewEvent returns a new Event object.
func NewEvent() *Object {
	return &Object{kind: KindEvent, refcount: 1, event: NewEventData()}
}

// Event returns the event payload, if the object holds one.
func (o *Object) Event() (*EventData, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindEvent {
		return nil, false
	}
	return o.event, true
}

// NewMethod returns a new Method object.
func NewMethod(bytecode []byte, argCount int, serialized bool, syncLevel uint8) *Object {
	lock := make(chan struct{}, 1)
	lock <- struct{}{}
	return &Object{kind: KindMethod, refcount: 1, method: &MethodData{
		Bytecode: bytecode, ArgCount: argCount, Serialized: serialized, SyncLevel: syncLevel,
		lock: lock,
	}}
}

// Method returns the method payload, if the object holds one.
func (o *Object) Method() (*MethodData, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindMethod {
		return nil, false
	}
	return o.method, true
}
