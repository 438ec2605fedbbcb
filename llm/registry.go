package llm

// Registry 服务商到适配器的映射。unknown 服务商路由到显式配置的 fallback
type Registry struct {
	providers map[Provider]ChatProvider
	fallback  Provider
}

// NewRegistry fallback 为 ProviderUnknown 或空时，未知模型直接报错
func NewRegistry(fallback Provider) *Registry {
	return &Registry{
		providers: make(map[Provider]ChatProvider),
		fallback:  fallback,
	}
}

func (r *Registry) Register(p Provider, c ChatProvider) {
	r.providers[p] = c
}

// Fallback 未知模型使用的服务商
func (r *Registry) Fallback() Provider {
	return r.fallback
}

// Resolve 返回实际使用的服务商和适配器
func (r *Registry) Resolve(p Provider) (Provider, ChatProvider, error) {
	if !p.Valid() {
		if !r.fallback.Valid() {
			return p, nil, &ProviderError{Provider: p, Message: "no provider matches model and no fallback configured", Err: ErrUnsupportedProvider}
		}
		p = r.fallback
	}
	c, ok := r.providers[p]
	if !ok {
		return p, nil, &ProviderError{Provider: p, Message: "provider not registered", Err: ErrUnsupportedProvider}
	}
	return p, c, nil
}

// Lister 返回支持模型目录的适配器
func (r *Registry) Lister(p Provider) (ModelLister, bool) {
	c, ok := r.providers[p]
	if !ok {
		return nil, false
	}
	l, ok := c.(ModelLister)
	return l, ok
}
